package nmongo

import "github.com/davecgh/go-spew/spew"

// DumpDocument renders a document for debug logging, the same tool
// the teacher's response rewriter used for buffered-query tracing.
// Intended for Logger.Debugf call sites and test failure messages,
// not for anything on the hot command-dispatch path.
func DumpDocument(doc interface{}) string {
	return spew.Sdump(doc)
}

// Command nmongo is a small CLI demonstrating Connection lifecycle
// wiring: it connects to a single mongod, runs ping and buildInfo, and
// reports ganglia-style metrics through a test registry, the same
// object-graph pattern the teacher's cmd/dvara used for ReplicaSet.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/facebookgo/gangliamr"
	"github.com/facebookgo/inject"
	"github.com/facebookgo/startstop"
	"github.com/facebookgo/stats"

	"github.com/nakagami/nmongo"
)

func main() {
	if err := Main(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func Main() error {
	uri := flag.String("uri", "", `mongodb:// connection string; overrides -host/-port/-database/-user/-password/-ssl when set`)
	host := flag.String("host", "localhost", "mongod host")
	port := flag.Int("port", 27017, "mongod port")
	database := flag.String("database", "admin", "default database")
	user := flag.String("user", "", "username, if authentication is required")
	password := flag.String("password", "", "password, if authentication is required")
	useSSL := flag.Bool("ssl", false, "connect over TLS")
	flag.Parse()

	dialInfo := nmongo.DialInfo{
		Host:     *host,
		Port:     *port,
		Database: *database,
		User:     *user,
		Password: *password,
		UseSSL:   *useSSL,
	}
	if *uri != "" {
		parsed, err := nmongo.ParseDialInfo(*uri)
		if err != nil {
			return err
		}
		dialInfo = parsed
	}

	var log nmongo.StdLogger
	var statsClient stats.HookClient
	conn := &nmongo.Connection{DialInfo: dialInfo}

	var graph inject.Graph
	if err := graph.Provide(
		&inject.Object{Value: &log},
		&inject.Object{Value: conn},
		&inject.Object{Value: &statsClient},
	); err != nil {
		return err
	}
	if err := graph.Populate(); err != nil {
		return err
	}
	objects := graph.Objects()

	gregistry := gangliamr.NewTestRegistry()
	for _, o := range objects {
		if rmO, ok := o.Value.(registerMetrics); ok {
			rmO.RegisterMetrics(gregistry)
		}
	}

	if err := startstop.Start(objects, &log); err != nil {
		return err
	}
	defer startstop.Stop(objects, &log)

	db := conn.Database(dialInfo.Database)
	if err := db.Ping(); err != nil {
		return err
	}
	fmt.Println("ping: ok")

	info, err := db.BuildInfo()
	if err != nil {
		return err
	}
	if v, ok := info.Lookup("version"); ok {
		fmt.Printf("buildInfo.version: %v\n", v)
	}

	return nil
}

type registerMetrics interface {
	RegisterMetrics(r *gangliamr.Registry)
}

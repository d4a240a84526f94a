package nmongo

import "github.com/nakagami/nmongo/bson"

// knownCommands is the closed set used by command-name selection
// (spec.md §6.1). A complete implementation must recognize this exact
// set when intersecting it against a parameter document's keys.
var knownCommands = buildCommandSet(
	"aggregate", "count", "distinct", "group", "mapReduce", "geoNear", "geoSearch",
	"find", "insert", "update", "delete", "findAndModify", "getMore",
	"getLastError", "getPrevError", "resetError", "eval", "parallelCollectionScan",
	"planCacheListFilters", "planCacheSetFilter", "planCacheClearFilters",
	"planCacheListQueryShapes", "planCacheListPlans", "planCacheClear",
	"logout", "authenticate", "copydbgetnonce", "getnonce", "authSchemaUpgrade",
	"createUser", "updateUser", "dropUser", "dropAllUsersFromDatabase",
	"grantRolesToUser", "revokeRolesToUser", "grantRolesToRole", "revokeRolesToRole",
	"usersInfo", "createRole", "updateRole", "dropRole", "dropAllRolesFromDatabase",
	"grantPrivilegesToRole", "revokePrivilegesToRole", "rolesInfo", "invalidateUserCache",
	"replSetFreeze", "replSetGetStatus", "replSetInitiate", "replSetMaintenance",
	"replSetReconfig", "replSetStepDown", "replSetSyncFrom", "replSetGetConfig",
	"replSetGetRBID", "replSetHeartbeat", "replSetElect", "replSetFresh",
	"resync", "applyOps", "isMaster", "flushRouterConfig",
	"addShard", "addShards", "removeShard", "removeShards", "listShard", "listShards",
	"balancerStart", "balancerStatus", "balancerStop", "cleanupOrphaned",
	"checkShardingIndex", "enableSharding", "unsetSharding", "getShardVersion",
	"setShardVersion", "getShardMap", "mergeChunks", "shardCollection",
	"shardingState", "split", "splitChunk", "splitVector", "medianKey",
	"moveChunk", "unsetChunk", "movePrimary", "isdbgrid",
	"addShardToZone", "removeShardToZone", "updateZoneKeyRange",
	"renameCollection", "copydb", "dropDatabase", "listCollections", "drop",
	"create", "clone", "cloneCollection", "cloneCollectionAsCapped", "convertToCapped",
	"filemd5", "createIndexes", "listIndexes", "deleteIndexes", "fsync", "clean",
	"connPoolSync", "connectionStatus", "compact", "collMod", "reIndex",
	"getParameter", "setParameter", "repairDatabase", "repairCursor", "touch",
	"shutdown", "logRotate", "killOp", "setFeatureCompatibilityVersion", "ping",
	"buildInfo", "serverStatus", "dbStats", "collStats", "hostInfo", "listCommands",
	"listDatabases", "whatsmyuri", "explain", "features", "getLog", "top",
	"validate", "dataSize", "dbHash", "diagLogging", "netstat", "profile",
	"cursorInfo", "connPoolStats", "shardConnPoolStats", "availableQueryOptions",
	"driverOIDTest", "getCmdLineOpts", "isSelf", "handshake", "saslStart",
	"saslContinue", "logApplicationMessage",
	"_recvChunkStart", "_recvChunkStatus", "_recvChunkCommit", "_recvChunkAbort",
	"_replSetFresh", "_transferMods", "_migrateClone",
	"mapreduce.shardedfinish", "writeBacksQueued", "writebacklisten",
)

func buildCommandSet(names ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(names))
	for _, n := range names {
		m[n] = struct{}{}
	}
	return m
}

// selectCommandName intersects the parameter document's keys with
// knownCommands. If the intersection contains findAndModify, that
// wins. Else if exactly one name, it wins. Else BadCommand.
func selectCommandName(params bson.D) (string, error) {
	var matches []string
	for _, e := range params {
		if _, ok := knownCommands[e.Key]; ok {
			matches = append(matches, e.Key)
		}
	}

	for _, m := range matches {
		if m == "findAndModify" {
			return m, nil
		}
	}

	if len(matches) == 1 {
		return matches[0], nil
	}

	return "", newBadCommand(params)
}

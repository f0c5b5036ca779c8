package mongoclient

import (
	"context"
	"errors"
	"crypto/tls"
	"runtime"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"

	"github.com/x-xyz/nftmarket/base/log"
)

const (
	mgSocketTimeout = 60 * time.Second
	connectTimeout  = 30 * time.Second
)

// ErrNoReplicaSet is returned when a standalone server is used where transactions are required
var ErrNoReplicaSet = errors.New("mongo server is not a replica set member")

// Client wraps mongo.Client
type Client struct {
	DbName string
	*mongo.Client
}

// Config describes how to reach the marketplace database
type Config struct {
	Uri            string
	AuthDBName     string
	DbName         string
	EnableSSL      bool
	SetSafe        bool
	PoolMultiplier float64
	// RequireReplicaSet fails the connection when the server cannot run transactions
	RequireReplicaSet bool
}

// MustConnectMongoClient returns MongoDB connection client if connected successfully, or it will trigger panic
func MustConnectMongoClient(cfg Config) *Client {
	cli, err := ConnectMongoClient(cfg)
	if err != nil {
		log.Log().WithFields(log.Fields{"mongoURI": cfg.Uri, "err": err}).Panic("fail to dial Mongo")
	}
	return cli
}

// ConnectMongoClient returns mongo driver client
func ConnectMongoClient(cfg Config) (*Client, error) {
	uri, authDBName, dbName := cfg.Uri, cfg.AuthDBName, cfg.DbName

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	connSetting, err := connstring.Parse(uri)
	if err != nil {
		log.Log().WithFields(log.Fields{
			"mongoURI": uri,
			"dbName":   dbName,
			"err":      err,
		}).Error("fail to parse connstring")
		return nil, err
	}

	clientOpts := options.Client()
	clientOpts.ApplyURI(uri)
	clientOpts.SetSocketTimeout(mgSocketTimeout)

	// If AuthSource is not set in connstring, set it to authDBName
	if connSetting.Username != "" && connSetting.AuthSource == "" {
		clientOpts.SetAuth(options.Credential{
			AuthMechanism:           connSetting.AuthMechanism,
			AuthMechanismProperties: connSetting.AuthMechanismProperties,
			Username:                connSetting.Username,
			Password:                connSetting.Password,
			PasswordSet:             connSetting.PasswordSet,
			AuthSource:              authDBName,
		})
	}

	// total connection pool size
	poolSize := int(float64(runtime.NumCPU()) * cfg.PoolMultiplier)
	if poolSize < 4 {
		poolSize = 4
	}
	// because each host has its own connection pool,
	// if we set poolSize directly, it generate too many connections,
	// we set each host's pool size by divide the number of hosts
	poolSize = (poolSize + len(connSetting.Hosts) - 1) / len(connSetting.Hosts)
	clientOpts.SetMinPoolSize(uint64(poolSize / 4))
	clientOpts.SetMaxPoolSize(uint64(poolSize))
	log.Log().WithField("poolSize", poolSize).Info("mongo driver pool size")

	// amounts are stored as decimal strings
	clientOpts.SetRegistry(Registry)

	if cfg.EnableSSL {
		tlsConfig := &tls.Config{}
		clientOpts.SetTLSConfig(tlsConfig)
	}

	if cfg.SetSafe {
		// Force the server to wait for a majority of members of a replica set to return
		clientOpts.SetWriteConcern(writeconcern.New(writeconcern.WMajority()))
	}
	// marketplace transactions are never retried implicitly
	clientOpts.SetRetryWrites(false)

	client, err := mongo.NewClient(clientOpts)
	if err != nil {
		log.Log().WithFields(log.Fields{
			"mongoHosts": connSetting.Hosts,
			"dbName":     dbName,
			"err":        err,
		}).Error("fail to create mongo client")
		return nil, err
	}

	if err := client.Connect(ctx); err != nil {
		log.Log().WithFields(log.Fields{
			"mongoHosts": connSetting.Hosts,
			"dbName":     dbName,
			"err":        err,
		}).Error("fail to connect mongo db")
		return nil, err
	}

	// Test if mongoDBName is valid
	if _, err := client.Database(dbName).ListCollectionNames(ctx, bson.D{}); err != nil {
		log.Log().WithFields(log.Fields{
			"mongoHosts": connSetting.Hosts,
			"dbName":     dbName,
			"err":        err,
		}).Error("fail to test mongo db")
		return nil, err
	}

	if cfg.RequireReplicaSet {
		if err := checkReplicaSet(ctx, client); err != nil {
			log.Log().WithFields(log.Fields{
				"mongoHosts": connSetting.Hosts,
				"err":        err,
			}).Error("mongo cannot run transactions")
			return nil, err
		}
	}

	log.Log().WithFields(log.Fields{
		"mongoHosts": connSetting.Hosts,
		"db":         dbName,
	}).Info("mongo connected")
	return &Client{
		Client: client,
		DbName: dbName,
	}, nil
}

type helloResult struct {
	SetName string `bson:"setName"`
	Msg     string `bson:"msg"`
}

// checkReplicaSet accepts replica set members and mongos routers
func checkReplicaSet(ctx context.Context, client *mongo.Client) error {
	res := helloResult{}
	if err := client.Database("admin").RunCommand(ctx, bson.D{{Key: "isMaster", Value: 1}}).Decode(&res); err != nil {
		return err
	}
	if res.SetName == "" && res.Msg != "isdbgrid" {
		return ErrNoReplicaSet
	}
	return nil
}

package walletapp

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/iov-one/quorum"
	"github.com/iov-one/quorum/app"
	"github.com/iov-one/quorum/store/iavl"
	"github.com/iov-one/quorum/x"
	"github.com/iov-one/quorum/x/cash"
	"github.com/iov-one/quorum/x/identity"
	"github.com/iov-one/quorum/x/msig"
	"github.com/tendermint/tendermint/libs/log"
)

// Authenticator returns the authentication used by all handlers. The
// caller is declared by the transaction.
func Authenticator() x.Authenticator {
	return identity.Authenticate{}
}

// Chain returns a chain of decorators, to handle logging, recovery and
// authentication
func Chain() app.Decorators {
	return app.ChainDecorators(
		app.NewLogging(),
		app.NewRecovery(),
		// on CheckTx, bad tx don't affect state
		app.NewSavepoint().OnCheck(),
		identity.NewDecorator(),
		app.NewSavepoint().OnDeliver(),
	)
}

// Router returns a router dispatching to cash and wallet handlers. The
// same router dispatches payloads of executed wallet transactions.
func Router(authFn x.Authenticator) *app.Router {
	r := app.NewRouter()
	ctrl := cash.NewController(cash.NewBucket())
	engine := msig.NewEngine(ctrl, DecodePayload, r)
	cash.RegisterRoutes(r, authFn, ctrl)
	msig.RegisterRoutes(r, authFn, engine)
	return r
}

// QueryRouter returns a default query router, allowing access to
// "/wallets", "/msigtxs" and "/balances"
func QueryRouter() quorum.QueryRouter {
	r := quorum.NewQueryRouter()
	r.RegisterAll(
		cash.RegisterQuery,
		msig.RegisterQuery,
	)
	return r
}

// Stack wires up a standard router with a standard decorator
// chain. This can be passed into BaseApp.
func Stack() quorum.Handler {
	authFn := Authenticator()
	return Chain().WithHandler(Router(authFn))
}

// GenesisInitializers returns the initializers of all extensions that
// read the genesis file.
func GenesisInitializers() quorum.Initializer {
	return app.ChainInitializers(
		cash.Initializer{},
		msig.Initializer{},
	)
}

// NewApp returns the application over given store.
func NewApp(kv quorum.CommitKVStore, logger log.Logger) app.BaseApp {
	queries := QueryRouter()
	store := app.NewStoreApp("walletd", kv, queries, context.Background())
	store.WithInit(GenesisInitializers())
	store.WithLogger(logger)
	logger.Debug("query paths registered", "paths", queries.Paths())
	return app.NewBaseApp(store, TxDecoder, Stack())
}

// Application constructs the application persisting its state under
// dbPath. Memory is used if dbPath is empty.
func Application(dbPath string, logger log.Logger, debug bool) (app.BaseApp, error) {
	kv, err := CommitKVStore(dbPath)
	if err != nil {
		return app.BaseApp{}, err
	}
	base := NewApp(kv, logger)
	base.WithDebug(debug)
	return base, nil
}

// CommitKVStore returns an initialized KVStore that persists
// the data to the named path.
func CommitKVStore(dbPath string) (quorum.CommitKVStore, error) {
	// memory backed case, just for testing
	if dbPath == "" {
		return iavl.NewMemCommitStore(), nil
	}

	// Expand the path fully
	path, err := filepath.Abs(dbPath)
	if err != nil {
		return nil, fmt.Errorf("invalid database name: %s", path)
	}

	// Some external calls accidentally add a ".db", which is now removed
	path = strings.TrimSuffix(path, filepath.Ext(path))

	// Split the database name into it's components (dir, name)
	dir := filepath.Dir(path)
	name := filepath.Base(path)
	return iavl.NewCommitStore(dir, name), nil
}

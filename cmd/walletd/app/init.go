package walletapp

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/iov-one/quorum"
	"github.com/iov-one/quorum/coin"
	"github.com/iov-one/quorum/errors"
	abci "github.com/tendermint/tendermint/abci/types"
	"github.com/tendermint/tendermint/libs/log"
)

// GenInitOptions will produce some basic options for one rich
// account, to use for dev mode. Optional arguments are the native ticker
// and the address of the account.
func GenInitOptions(args []string) (json.RawMessage, error) {
	ticker := "IOV"
	if len(args) > 0 {
		ticker = args[0]
		if !coin.IsCC(ticker) {
			return nil, errors.Wrapf(errors.ErrCurrency, "invalid ticker %s", ticker)
		}
	}

	var addr quorum.Address
	if len(args) > 1 {
		a, err := quorum.ParseAddress(args[1])
		if err != nil {
			return nil, errors.Wrap(err, "account address")
		}
		addr = a
	} else {
		// if no address provided, auto-generate one
		addr = make(quorum.Address, quorum.AddressLength)
		if _, err := rand.Read(addr); err != nil {
			return nil, errors.Wrap(err, "generate address")
		}
		fmt.Println("account:", addr)
	}

	opts := fmt.Sprintf(`
          {
            "conf": {
              "msig": {
                "metadata": {"schema": 1},
                "native_ticker": %[1]q,
                "address_prefix": "iov"
              }
            },
            "cash": [
              {
                "address": %[2]q,
                "coins": ["123456789 %[1]s"]
              }
            ],
            "msig": {
              "wallets": []
            }
          }
	`, ticker, addr.String())
	return []byte(opts), nil
}

// GenerateApp is used to create a stub for server/start.go command
func GenerateApp(home string, logger log.Logger, debug bool) (abci.Application, error) {
	// db goes in a subdir, but "" -> "" for memdb
	var dbPath string
	if home != "" {
		dbPath = filepath.Join(home, "walletd.db")
	}
	return Application(dbPath, logger, debug)
}

package server

import (
	"encoding/json"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/iov-one/quorum"
	"github.com/iov-one/quorum/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendermint/tendermint/libs/log"
)

func tempHome(t *testing.T) string {
	t.Helper()
	home, err := ioutil.TempDir("", "walletd-init")
	require.NoError(t, err)
	return home
}

func staticOptions(opts string) GenOptions {
	return func([]string) (json.RawMessage, error) {
		return json.RawMessage(opts), nil
	}
}

func loadGenesis(t *testing.T, home string) GenesisDoc {
	t.Helper()
	raw, err := ioutil.ReadFile(GenesisPath(home))
	require.NoError(t, err)
	var doc GenesisDoc
	require.NoError(t, json.Unmarshal(raw, &doc))
	return doc
}

func TestInitCreatesGenesis(t *testing.T) {
	home := tempHome(t)
	defer os.RemoveAll(home)

	var gotArgs []string
	gen := func(args []string) (json.RawMessage, error) {
		gotArgs = args
		return json.RawMessage(`{"cash": []}`), nil
	}
	err := InitCmd(gen, log.NewNopLogger(), home, []string{"-chain", "my-chain", "IOV"})
	require.NoError(t, err)
	assert.Equal(t, []string{"IOV"}, gotArgs)

	doc := loadGenesis(t, home)
	assert.JSONEq(t, `"my-chain"`, string(doc["chain_id"]))
	assert.JSONEq(t, `{"cash": []}`, string(doc["app_state"]))
}

func TestInitKeepsTendermintGenesis(t *testing.T) {
	home := tempHome(t)
	defer os.RemoveAll(home)

	require.NoError(t, os.MkdirAll(filepath.Join(home, "config"), 0755))
	original := `{"chain_id": "tm-chain", "validators": [{"power": "10"}]}`
	require.NoError(t, ioutil.WriteFile(GenesisPath(home), []byte(original), 0600))

	require.NoError(t, InitCmd(staticOptions(`{"a": 1}`), log.NewNopLogger(), home, nil))
	doc := loadGenesis(t, home)
	assert.JSONEq(t, `"tm-chain"`, string(doc["chain_id"]))
	assert.JSONEq(t, `[{"power": "10"}]`, string(doc["validators"]))
	assert.JSONEq(t, `{"a": 1}`, string(doc["app_state"]))

	// Existing app state is not overwritten by accident.
	err := InitCmd(staticOptions(`{"a": 2}`), log.NewNopLogger(), home, nil)
	assert.True(t, errors.ErrState.Is(err), "unexpected error: %+v", err)

	require.NoError(t, InitCmd(staticOptions(`{"a": 2}`), log.NewNopLogger(), home, []string{"-f"}))
	assert.JSONEq(t, `{"a": 2}`, string(loadGenesis(t, home)["app_state"]))
}

func TestInitRejectsInvalidOptions(t *testing.T) {
	home := tempHome(t)
	defer os.RemoveAll(home)

	err := InitCmd(staticOptions(`{"a": `), log.NewNopLogger(), home, nil)
	assert.True(t, errors.ErrInput.Is(err), "unexpected error: %+v", err)
}

type initializerFunc func(quorum.Options, quorum.KVStore) error

func (fn initializerFunc) FromGenesis(opts quorum.Options, db quorum.KVStore) error {
	return fn(opts, db)
}

func TestValidateGenesis(t *testing.T) {
	home := tempHome(t)
	defer os.RemoveAll(home)
	require.NoError(t, InitCmd(staticOptions(`{"value": "ok"}`), log.NewNopLogger(), home, nil))

	ini := initializerFunc(func(opts quorum.Options, db quorum.KVStore) error {
		var value string
		if err := opts.ReadOptions("value", &value); err != nil {
			return err
		}
		if value != "ok" {
			return errors.Wrap(errors.ErrInput, "bad value")
		}
		return db.Set([]byte("value"), []byte(value))
	})
	assert.NoError(t, ValidateGenesis(ini, []string{GenesisPath(home)}))

	require.NoError(t, InitCmd(staticOptions(`{"value": "bad"}`), log.NewNopLogger(), home, []string{"-f"}))
	err := ValidateGenesis(ini, []string{GenesisPath(home)})
	assert.True(t, errors.ErrInput.Is(err), "unexpected error: %+v", err)

	err = ValidateGenesis(ini, []string{filepath.Join(home, "missing.json")})
	assert.Error(t, err)

	noState := filepath.Join(home, "nostate.json")
	require.NoError(t, ioutil.WriteFile(noState, []byte(`{"chain_id": "x"}`), 0600))
	err = ValidateGenesis(ini, []string{noState})
	assert.True(t, errors.ErrEmpty.Is(err), "unexpected error: %+v", err)
}

func TestParseStartFlags(t *testing.T) {
	flags, err := parseFlags([]string{"-bind", "tcp://0.0.0.0:1234", "-metrics", ":9090", "-debug"})
	require.NoError(t, err)
	assert.Equal(t, startArgs{bind: "tcp://0.0.0.0:1234", metrics: ":9090", debug: true}, flags)

	flags, err = parseFlags(nil)
	require.NoError(t, err)
	assert.Equal(t, "tcp://localhost:26658", flags.bind)
	assert.Empty(t, flags.metrics)
	assert.False(t, flags.debug)
}

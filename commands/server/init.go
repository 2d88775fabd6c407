package server

import (
	"encoding/json"
	"flag"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/iov-one/quorum/errors"
	cmn "github.com/tendermint/tendermint/libs/common"
	"github.com/tendermint/tendermint/libs/log"
)

const (
	flagChainID = "chain"
	flagForce   = "f"
)

// GenOptions can parse command-line and flag to
// generate default app_options for the genesis file.
// This is application-specific
type GenOptions func(args []string) (json.RawMessage, error)

// GenesisDoc involves some tendermint-specific structures we don't
// want to parse, so we just grab it into a raw object format,
// so we can add one line.
type GenesisDoc map[string]json.RawMessage

type initArgs struct {
	chainID string
	force   bool
	rest    []string
}

func parseInitArgs(args []string) (initArgs, error) {
	var res initArgs
	initFlags := flag.NewFlagSet("init", flag.ContinueOnError)
	initFlags.StringVar(&res.chainID, flagChainID, "", "chain id of a created genesis file, random if empty")
	initFlags.BoolVar(&res.force, flagForce, false, "overwrite existing app_state")
	if err := initFlags.Parse(args); err != nil {
		return res, errors.Wrap(errors.ErrInput, err.Error())
	}
	res.rest = initFlags.Args()
	return res, nil
}

// GenesisPath returns the location of the genesis file under given home
// directory, as used by tendermint.
func GenesisPath(home string) string {
	return filepath.Join(home, "config", "genesis.json")
}

// InitCmd will initialize the app_state of the genesis file. Genesis file
// created by tendermint is reused, otherwise a minimal one is created.
// Remaining arguments are passed to gen.
func InitCmd(gen GenOptions, logger log.Logger, home string, args []string) error {
	flags, err := parseInitArgs(args)
	if err != nil {
		return err
	}

	genFile := GenesisPath(home)
	doc, err := loadOrCreateGenesis(genFile, flags.chainID)
	if err != nil {
		return err
	}
	if _, ok := doc["app_state"]; ok && !flags.force {
		return errors.Wrapf(errors.ErrState, "app_state already set in %s", genFile)
	}

	options, err := gen(flags.rest)
	if err != nil {
		return err
	}
	if err := addGenesisOptions(genFile, doc, options); err != nil {
		return err
	}
	logger.Info("App state written to genesis file", "path", genFile)
	return nil
}

func loadOrCreateGenesis(genFile, chainID string) (GenesisDoc, error) {
	bz, err := ioutil.ReadFile(genFile)
	if os.IsNotExist(err) {
		if chainID == "" {
			chainID = fmt.Sprintf("test-chain-%v", cmn.RandStr(6))
		}
		raw, err := json.Marshal(chainID)
		if err != nil {
			return nil, err
		}
		if err := os.MkdirAll(filepath.Dir(genFile), 0755); err != nil {
			return nil, errors.Wrap(err, "cannot create config directory")
		}
		return GenesisDoc{"chain_id": raw}, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "cannot read genesis file")
	}
	return parseGenesis(bz)
}

func readGenesis(path string) (GenesisDoc, error) {
	bz, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "cannot read genesis file")
	}
	return parseGenesis(bz)
}

func parseGenesis(raw []byte) (GenesisDoc, error) {
	var doc GenesisDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, errors.Wrapf(errors.ErrInput, "cannot parse genesis file: %s", err)
	}
	return doc, nil
}

func addGenesisOptions(filename string, doc GenesisDoc, options json.RawMessage) error {
	if !json.Valid(options) {
		return errors.Wrap(errors.ErrInput, "app_state is not valid JSON")
	}
	doc["app_state"] = options
	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	return ioutil.WriteFile(filename, out, 0600)
}

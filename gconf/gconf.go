package gconf

import (
	"github.com/iov-one/quorum"
	"github.com/iov-one/quorum/errors"
)

// ReadStore is the part of a store needed to load a configuration.
type ReadStore interface {
	Get(key []byte) ([]byte, error)
}

// Store is the part of a store needed to save a configuration.
type Store interface {
	ReadStore
	Set(key, value []byte) error
}

// Configuration is implemented by the configuration object of an
// extension. It is validated before every save.
type Configuration interface {
	Validate() error
	Marshal() ([]byte, error)
	Unmarshal([]byte) error
}

// Keys with the "_c:" prefix hold configuration singletons.
func configKey(pkg string) []byte {
	return append([]byte("_c:"), pkg...)
}

// Save stores a valid configuration of the package, replacing the
// previous one.
func Save(db Store, pkg string, conf Configuration) error {
	if err := conf.Validate(); err != nil {
		return errors.Wrapf(err, "invalid %s configuration", pkg)
	}
	raw, err := conf.Marshal()
	if err != nil {
		return errors.Wrapf(err, "marshal %s configuration", pkg)
	}
	return errors.Wrapf(db.Set(configKey(pkg), raw), "save %s configuration", pkg)
}

// Load fails with ErrNotFound until the configuration of the package is
// saved.
func Load(db ReadStore, pkg string, conf Configuration) error {
	raw, err := db.Get(configKey(pkg))
	switch {
	case err != nil:
		return errors.Wrapf(err, "read %s configuration", pkg)
	case raw == nil:
		return errors.Wrapf(errors.ErrNotFound, "no %s configuration", pkg)
	}
	return errors.Wrapf(conf.Unmarshal(raw), "unmarshal %s configuration", pkg)
}

// InitConfig saves the configuration found in the genesis under
// conf.<pkg>. A missing section is an ErrNotFound error.
func InitConfig(db Store, opts quorum.Options, pkg string, conf Configuration) error {
	var sections quorum.Options
	if err := opts.ReadOptions("conf", &sections); err != nil {
		return errors.Wrap(err, "read conf section")
	}
	if _, ok := sections[pkg]; !ok {
		return errors.Wrapf(errors.ErrNotFound, "no %s configuration in genesis", pkg)
	}
	if err := sections.ReadOptions(pkg, conf); err != nil {
		return errors.Wrapf(err, "read %s configuration", pkg)
	}
	return Save(db, pkg, conf)
}

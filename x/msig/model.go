package msig

import (
	"encoding/binary"

	"github.com/iov-one/quorum"
	"github.com/iov-one/quorum/codec"
	"github.com/iov-one/quorum/errors"
	"github.com/iov-one/quorum/orm"
	"github.com/iov-one/quorum/safemath"
)

const (
	// MaxOwners is the upper bound of the owner set size.
	MaxOwners = 50

	walletBucketName      = "wallet"
	transactionBucketName = "msigtx"
)

// WalletCondition returns the condition of the wallet with given id. The
// address of this condition holds the wallet funds and is the caller of
// every executed payload.
func WalletCondition(id []byte) quorum.Condition {
	return quorum.NewCondition("msig", "wallet", id)
}

// WalletAddress returns the address of the wallet with given id.
func WalletAddress(id []byte) quorum.Address {
	return WalletCondition(id).Address()
}

// Wallet is the ownership registry of a single wallet.
type Wallet struct {
	Metadata *quorum.Metadata
	// Owners are kept in insertion order.
	Owners []quorum.Address
	// Required is the number of confirmations of current owners needed
	// to execute a transaction.
	Required uint32
	// TransactionCount is the number of transaction ids ever allocated.
	TransactionCount uint64
}

var _ orm.Model = (*Wallet)(nil)

// Validate returns an error if any invariant of the registry is broken.
func (w *Wallet) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", w.Metadata.Validate())
	errs = errors.AppendField(errs, "Owners", validateOwners(w.Owners))
	switch {
	case w.Required == 0:
		errs = errors.AppendField(errs, "Required", errors.Wrap(errors.ErrInput, "must be at least one"))
	case int(w.Required) > len(w.Owners):
		errs = errors.AppendField(errs, "Required", errors.Wrapf(errors.ErrInput, "%d exceeds %d owners", w.Required, len(w.Owners)))
	}
	return errs
}

func validateOwners(owners []quorum.Address) error {
	switch n := len(owners); {
	case n == 0:
		return errors.Wrap(errors.ErrEmpty, "no owners")
	case n > MaxOwners:
		return errors.Wrapf(errors.ErrInput, "%d owners, at most %d allowed", n, MaxOwners)
	}
	for i, o := range owners {
		if err := validateOwner(o); err != nil {
			return errors.Wrapf(err, "owner %d", i)
		}
		for _, prev := range owners[:i] {
			if prev.Equals(o) {
				return errors.Wrapf(errors.ErrDuplicate, "owner %s", o)
			}
		}
	}
	return nil
}

func validateOwner(a quorum.Address) error {
	if err := a.Validate(); err != nil {
		return err
	}
	if a.IsZero() {
		return errors.Wrap(errors.ErrInput, "zero address")
	}
	return nil
}

// IsOwner returns true if given address is a current owner.
func (w *Wallet) IsOwner(addr quorum.Address) bool {
	return w.ownerIndex(addr) >= 0
}

// OwnerCount returns the number of current owners.
func (w *Wallet) OwnerCount() int {
	return len(w.Owners)
}

// GetOwners returns a copy of the owner list in insertion order.
func (w *Wallet) GetOwners() []quorum.Address {
	res := make([]quorum.Address, len(w.Owners))
	for i, o := range w.Owners {
		res[i] = o.Clone()
	}
	return res
}

func (w *Wallet) ownerIndex(addr quorum.Address) int {
	for i, o := range w.Owners {
		if o.Equals(addr) {
			return i
		}
	}
	return -1
}

// addOwner appends a new owner.
func (w *Wallet) addOwner(addr quorum.Address) error {
	if err := validateOwner(addr); err != nil {
		return errors.Wrap(err, "owner")
	}
	if w.IsOwner(addr) {
		return errors.Wrapf(errors.ErrDuplicate, "%s is already an owner", addr)
	}
	if len(w.Owners) >= MaxOwners {
		return errors.Wrapf(errors.ErrState, "owner limit of %d reached", MaxOwners)
	}
	w.Owners = append(w.Owners, addr.Clone())
	return nil
}

// removeOwner removes an owner. If the threshold cannot be reached by the
// remaining owners, it is lowered to the owner count.
func (w *Wallet) removeOwner(addr quorum.Address) error {
	i := w.ownerIndex(addr)
	if i < 0 {
		return errors.Wrapf(errors.ErrNotFound, "%s is not an owner", addr)
	}
	if len(w.Owners) == 1 {
		return errors.Wrap(errors.ErrState, "cannot remove the last owner")
	}
	owners := make([]quorum.Address, 0, len(w.Owners)-1)
	owners = append(owners, w.Owners[:i]...)
	w.Owners = append(owners, w.Owners[i+1:]...)
	if int(w.Required) > len(w.Owners) {
		w.Required = uint32(len(w.Owners))
	}
	return nil
}

// replaceOwner puts a new owner in place of an existing one. The threshold
// is not changed.
func (w *Wallet) replaceOwner(old, new quorum.Address) error {
	i := w.ownerIndex(old)
	if i < 0 {
		return errors.Wrapf(errors.ErrNotFound, "%s is not an owner", old)
	}
	if err := validateOwner(new); err != nil {
		return errors.Wrap(err, "new owner")
	}
	if w.IsOwner(new) {
		return errors.Wrapf(errors.ErrDuplicate, "%s is already an owner", new)
	}
	w.Owners[i] = new.Clone()
	return nil
}

// changeRequirement sets the threshold.
func (w *Wallet) changeRequirement(n uint32) error {
	if n == 0 {
		return errors.Wrap(errors.ErrInput, "required must be at least one")
	}
	if int(n) > len(w.Owners) {
		return errors.Wrapf(errors.ErrInput, "required %d exceeds %d owners", n, len(w.Owners))
	}
	w.Required = n
	return nil
}

// nextTransactionID allocates a transaction id.
func (w *Wallet) nextTransactionID() (uint64, error) {
	id := w.TransactionCount
	next, err := safemath.Inc64(w.TransactionCount)
	if err != nil {
		return 0, errors.Wrap(err, "transaction count")
	}
	w.TransactionCount = next
	return id, nil
}

func (w *Wallet) Marshal() ([]byte, error) {
	var e codec.Encoder
	e.Message(1, w.Metadata)
	e.RepeatedBytes(2, rawAddresses(w.Owners))
	e.Uint64(3, uint64(w.Required))
	e.Uint64(4, w.TransactionCount)
	return e.Result()
}

func (w *Wallet) Unmarshal(raw []byte) error {
	*w = Wallet{}
	return codec.Decode(raw, func(f codec.Field) (err error) {
		switch f.Num() {
		case 1:
			w.Metadata = &quorum.Metadata{}
			err = f.Message(w.Metadata)
		case 2:
			var o []byte
			o, err = f.Bytes()
			w.Owners = append(w.Owners, o)
		case 3:
			w.Required, err = f.Uint32()
		case 4:
			w.TransactionCount, err = f.Uint64()
		}
		return err
	})
}

// TxState is the lifecycle state of a transaction. Confirmed is derived
// from the current owner set and never stored.
type TxState int

const (
	Proposed TxState = iota
	PartiallyConfirmed
	Confirmed
	Executed
)

func (s TxState) String() string {
	switch s {
	case Proposed:
		return "proposed"
	case PartiallyConfirmed:
		return "partially confirmed"
	case Confirmed:
		return "confirmed"
	case Executed:
		return "executed"
	}
	return "unknown"
}

// Transaction is an entry of the wallet ledger.
type Transaction struct {
	Metadata    *quorum.Metadata
	WalletID    []byte
	Destination quorum.Address
	// Value is the amount of the native currency transferred to the
	// destination.
	Value safemath.Uint
	// Payload, if not empty, is an encoded message dispatched on
	// execution with the wallet as the caller.
	Payload  []byte
	Executed bool
	// Confirmations may contain addresses that are no longer owners.
	// Those are kept but not counted.
	Confirmations []quorum.Address
}

var _ orm.Model = (*Transaction)(nil)

func (t *Transaction) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", t.Metadata.Validate())
	errs = errors.AppendField(errs, "WalletID", validateWalletID(t.WalletID))
	if err := t.Destination.Validate(); err != nil {
		errs = errors.AppendField(errs, "Destination", err)
	} else if t.Destination.IsZero() {
		errs = errors.AppendField(errs, "Destination", errors.Wrap(errors.ErrInput, "zero address"))
	}
	if len(t.Payload) > maxPayloadSize {
		errs = errors.AppendField(errs, "Payload", errors.Wrapf(errors.ErrInput, "longer than %d bytes", maxPayloadSize))
	}
	for i, c := range t.Confirmations {
		if err := c.Validate(); err != nil {
			errs = errors.AppendField(errs, "Confirmations", errors.Wrapf(err, "confirmation %d", i))
		}
	}
	return errs
}

// HasConfirmed returns true if given address confirmed this transaction,
// whether it is still an owner or not.
func (t *Transaction) HasConfirmed(addr quorum.Address) bool {
	return t.confirmationIndex(addr) >= 0
}

func (t *Transaction) confirmationIndex(addr quorum.Address) int {
	for i, c := range t.Confirmations {
		if c.Equals(addr) {
			return i
		}
	}
	return -1
}

func (t *Transaction) confirm(addr quorum.Address) error {
	if t.Executed {
		return errors.Wrap(errors.ErrState, "already executed")
	}
	if t.HasConfirmed(addr) {
		return errors.Wrapf(errors.ErrDuplicate, "already confirmed by %s", addr)
	}
	t.Confirmations = append(t.Confirmations, addr.Clone())
	return nil
}

func (t *Transaction) revoke(addr quorum.Address) error {
	if t.Executed {
		return errors.Wrap(errors.ErrState, "already executed")
	}
	i := t.confirmationIndex(addr)
	if i < 0 {
		return errors.Wrapf(errors.ErrState, "not confirmed by %s", addr)
	}
	confs := make([]quorum.Address, 0, len(t.Confirmations)-1)
	confs = append(confs, t.Confirmations[:i]...)
	t.Confirmations = append(confs, t.Confirmations[i+1:]...)
	return nil
}

// State returns the lifecycle state of this transaction, evaluated
// against the current owners of given wallet.
func (t *Transaction) State(w *Wallet) TxState {
	if t.Executed {
		return Executed
	}
	n := liveConfirmations(t.Confirmations, w.Owners)
	switch {
	case n == 0:
		return Proposed
	case isConfirmed(t.Confirmations, w.Owners, w.Required):
		return Confirmed
	default:
		return PartiallyConfirmed
	}
}

// liveConfirmations returns the number of confirmations made by current
// owners.
func liveConfirmations(confirmations, owners []quorum.Address) int {
	var n int
	for _, c := range confirmations {
		for _, o := range owners {
			if c.Equals(o) {
				n++
				break
			}
		}
	}
	return n
}

// isConfirmed returns true if the confirmations of current owners reach
// the threshold.
func isConfirmed(confirmations, owners []quorum.Address, required uint32) bool {
	if required == 0 {
		return false
	}
	return liveConfirmations(confirmations, owners) >= int(required)
}

func (t *Transaction) Marshal() ([]byte, error) {
	var e codec.Encoder
	e.Message(1, t.Metadata)
	e.Bytes(2, t.WalletID)
	e.Bytes(3, t.Destination)
	e.Bytes(4, t.Value.Bytes())
	e.Bytes(5, t.Payload)
	e.Bool(6, t.Executed)
	e.RepeatedBytes(7, rawAddresses(t.Confirmations))
	return e.Result()
}

func (t *Transaction) Unmarshal(raw []byte) error {
	*t = Transaction{}
	return codec.Decode(raw, func(f codec.Field) (err error) {
		switch f.Num() {
		case 1:
			t.Metadata = &quorum.Metadata{}
			err = f.Message(t.Metadata)
		case 2:
			t.WalletID, err = f.Bytes()
		case 3:
			t.Destination, err = f.Bytes()
		case 4:
			var b []byte
			if b, err = f.Bytes(); err == nil {
				t.Value, err = safemath.UintFromBytes(b)
			}
		case 5:
			t.Payload, err = f.Bytes()
		case 6:
			t.Executed, err = f.Bool()
		case 7:
			var c []byte
			c, err = f.Bytes()
			t.Confirmations = append(t.Confirmations, c)
		}
		return err
	})
}

func rawAddresses(addrs []quorum.Address) [][]byte {
	raw := make([][]byte, len(addrs))
	for i, a := range addrs {
		raw[i] = a
	}
	return raw
}

func validateWalletID(id []byte) error {
	if len(id) != 8 {
		return errors.Wrapf(errors.ErrInput, "wallet id must be 8 bytes, got %d", len(id))
	}
	return nil
}

// transactionKey returns the ledger key of a transaction. Keys of a single
// wallet share the wallet id prefix and are ordered by transaction id.
func transactionKey(walletID []byte, txID uint64) []byte {
	key := make([]byte, 0, len(walletID)+8)
	key = append(key, walletID...)
	return append(key, orm.EncodeSequence(txID)...)
}

func transactionIDFromKey(key []byte) (uint64, error) {
	if len(key) < 8 {
		return 0, errors.Wrapf(errors.ErrInput, "transaction key too short: %x", key)
	}
	return binary.BigEndian.Uint64(key[len(key)-8:]), nil
}

// NewWalletBucket returns a bucket storing wallets under a sequence id.
func NewWalletBucket() orm.ModelBucket {
	return orm.NewModelBucket(walletBucketName, &Wallet{})
}

// NewTransactionBucket returns a bucket storing the ledger of all wallets.
func NewTransactionBucket() orm.ModelBucket {
	return orm.NewModelBucket(transactionBucketName, &Transaction{})
}

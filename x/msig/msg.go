package msig

import (
	"github.com/iov-one/quorum"
	"github.com/iov-one/quorum/codec"
	"github.com/iov-one/quorum/errors"
	"github.com/iov-one/quorum/safemath"
)

const maxPayloadSize = 4096

const (
	pathCreateWallet       = "msig/create"
	pathSubmitTransaction  = "msig/submit"
	pathConfirmTransaction = "msig/confirm"
	pathRevokeConfirmation = "msig/revoke"
	pathAddOwner           = "msig/add_owner"
	pathRemoveOwner        = "msig/remove_owner"
	pathReplaceOwner       = "msig/replace_owner"
	pathChangeRequirement  = "msig/change_requirement"
)

var (
	_ quorum.Msg = (*CreateWalletMsg)(nil)
	_ quorum.Msg = (*SubmitTransactionMsg)(nil)
	_ quorum.Msg = (*ConfirmTransactionMsg)(nil)
	_ quorum.Msg = (*RevokeConfirmationMsg)(nil)
	_ quorum.Msg = (*AddOwnerMsg)(nil)
	_ quorum.Msg = (*RemoveOwnerMsg)(nil)
	_ quorum.Msg = (*ReplaceOwnerMsg)(nil)
	_ quorum.Msg = (*ChangeRequirementMsg)(nil)
)

// CreateWalletMsg creates a new wallet. Anyone can create a wallet.
type CreateWalletMsg struct {
	Metadata *quorum.Metadata
	Owners   []quorum.Address
	Required uint32
}

func (CreateWalletMsg) Path() string {
	return pathCreateWallet
}

func (m *CreateWalletMsg) Validate() error {
	w := Wallet{Metadata: m.Metadata, Owners: m.Owners, Required: m.Required}
	return w.Validate()
}

func (m *CreateWalletMsg) Marshal() ([]byte, error) {
	var e codec.Encoder
	e.Message(1, m.Metadata)
	e.RepeatedBytes(2, rawAddresses(m.Owners))
	e.Uint64(3, uint64(m.Required))
	return e.Result()
}

func (m *CreateWalletMsg) Unmarshal(raw []byte) error {
	*m = CreateWalletMsg{}
	return codec.Decode(raw, func(f codec.Field) (err error) {
		switch f.Num() {
		case 1:
			m.Metadata = &quorum.Metadata{}
			err = f.Message(m.Metadata)
		case 2:
			var o []byte
			o, err = f.Bytes()
			m.Owners = append(m.Owners, o)
		case 3:
			m.Required, err = f.Uint32()
		}
		return err
	})
}

// SubmitTransactionMsg proposes a new transaction. The submitter confirms
// it at the same time.
//
// Destination receives Value and, when it is the wallet itself, grants the
// payload the right to administer the wallet. The payload is routed by its
// own message path and runs with the wallet as the caller, so it may move
// funds or call handlers unrelated to Destination. Confirm the decoded
// payload, not only the destination.
type SubmitTransactionMsg struct {
	Metadata    *quorum.Metadata
	WalletID    []byte
	Destination quorum.Address
	Value       safemath.Uint
	Payload     []byte
}

func (SubmitTransactionMsg) Path() string {
	return pathSubmitTransaction
}

func (m *SubmitTransactionMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	errs = errors.AppendField(errs, "WalletID", validateWalletID(m.WalletID))
	if err := m.Destination.Validate(); err != nil {
		errs = errors.AppendField(errs, "Destination", errors.Wrap(errors.ErrMsg, err.Error()))
	} else if m.Destination.IsZero() {
		errs = errors.AppendField(errs, "Destination", errors.Wrap(errors.ErrMsg, "zero address"))
	}
	if len(m.Payload) > maxPayloadSize {
		errs = errors.AppendField(errs, "Payload", errors.Wrapf(errors.ErrInput, "longer than %d bytes", maxPayloadSize))
	}
	return errs
}

func (m *SubmitTransactionMsg) Marshal() ([]byte, error) {
	var e codec.Encoder
	e.Message(1, m.Metadata)
	e.Bytes(2, m.WalletID)
	e.Bytes(3, m.Destination)
	e.Bytes(4, m.Value.Bytes())
	e.Bytes(5, m.Payload)
	return e.Result()
}

func (m *SubmitTransactionMsg) Unmarshal(raw []byte) error {
	*m = SubmitTransactionMsg{}
	return codec.Decode(raw, func(f codec.Field) (err error) {
		switch f.Num() {
		case 1:
			m.Metadata = &quorum.Metadata{}
			err = f.Message(m.Metadata)
		case 2:
			m.WalletID, err = f.Bytes()
		case 3:
			m.Destination, err = f.Bytes()
		case 4:
			var b []byte
			if b, err = f.Bytes(); err == nil {
				m.Value, err = safemath.UintFromBytes(b)
			}
		case 5:
			m.Payload, err = f.Bytes()
		}
		return err
	})
}

// ConfirmTransactionMsg adds the confirmation of the caller.
type ConfirmTransactionMsg struct {
	Metadata      *quorum.Metadata
	WalletID      []byte
	TransactionID uint64
}

func (ConfirmTransactionMsg) Path() string {
	return pathConfirmTransaction
}

func (m *ConfirmTransactionMsg) Validate() error {
	return validateTxRef(m.Metadata, m.WalletID)
}

func (m *ConfirmTransactionMsg) Marshal() ([]byte, error) {
	return marshalTxRef(m.Metadata, m.WalletID, m.TransactionID)
}

func (m *ConfirmTransactionMsg) Unmarshal(raw []byte) error {
	*m = ConfirmTransactionMsg{}
	return unmarshalTxRef(raw, &m.Metadata, &m.WalletID, &m.TransactionID)
}

// RevokeConfirmationMsg withdraws the confirmation of the caller.
type RevokeConfirmationMsg struct {
	Metadata      *quorum.Metadata
	WalletID      []byte
	TransactionID uint64
}

func (RevokeConfirmationMsg) Path() string {
	return pathRevokeConfirmation
}

func (m *RevokeConfirmationMsg) Validate() error {
	return validateTxRef(m.Metadata, m.WalletID)
}

func (m *RevokeConfirmationMsg) Marshal() ([]byte, error) {
	return marshalTxRef(m.Metadata, m.WalletID, m.TransactionID)
}

func (m *RevokeConfirmationMsg) Unmarshal(raw []byte) error {
	*m = RevokeConfirmationMsg{}
	return unmarshalTxRef(raw, &m.Metadata, &m.WalletID, &m.TransactionID)
}

func validateTxRef(meta *quorum.Metadata, walletID []byte) error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", meta.Validate())
	errs = errors.AppendField(errs, "WalletID", validateWalletID(walletID))
	return errs
}

func marshalTxRef(meta *quorum.Metadata, walletID []byte, txID uint64) ([]byte, error) {
	var e codec.Encoder
	e.Message(1, meta)
	e.Bytes(2, walletID)
	e.Uint64(3, txID)
	return e.Result()
}

func unmarshalTxRef(raw []byte, meta **quorum.Metadata, walletID *[]byte, txID *uint64) error {
	return codec.Decode(raw, func(f codec.Field) (err error) {
		switch f.Num() {
		case 1:
			*meta = &quorum.Metadata{}
			err = f.Message(*meta)
		case 2:
			*walletID, err = f.Bytes()
		case 3:
			*txID, err = f.Uint64()
		}
		return err
	})
}

// AddOwnerMsg adds an owner to the wallet. It is accepted only as the
// payload of a wallet transaction addressed to the wallet itself.
type AddOwnerMsg struct {
	Metadata *quorum.Metadata
	WalletID []byte
	Owner    quorum.Address
}

func (AddOwnerMsg) Path() string {
	return pathAddOwner
}

func (m *AddOwnerMsg) Validate() error {
	errs := validateTxRef(m.Metadata, m.WalletID)
	return errors.AppendField(errs, "Owner", validateOwner(m.Owner))
}

func (m *AddOwnerMsg) Marshal() ([]byte, error) {
	var e codec.Encoder
	e.Message(1, m.Metadata)
	e.Bytes(2, m.WalletID)
	e.Bytes(3, m.Owner)
	return e.Result()
}

func (m *AddOwnerMsg) Unmarshal(raw []byte) error {
	*m = AddOwnerMsg{}
	return unmarshalOwnerRef(raw, &m.Metadata, &m.WalletID, &m.Owner)
}

// RemoveOwnerMsg removes an owner from the wallet. It is accepted only as
// the payload of a wallet transaction addressed to the wallet itself.
type RemoveOwnerMsg struct {
	Metadata *quorum.Metadata
	WalletID []byte
	Owner    quorum.Address
}

func (RemoveOwnerMsg) Path() string {
	return pathRemoveOwner
}

func (m *RemoveOwnerMsg) Validate() error {
	errs := validateTxRef(m.Metadata, m.WalletID)
	return errors.AppendField(errs, "Owner", m.Owner.Validate())
}

func (m *RemoveOwnerMsg) Marshal() ([]byte, error) {
	var e codec.Encoder
	e.Message(1, m.Metadata)
	e.Bytes(2, m.WalletID)
	e.Bytes(3, m.Owner)
	return e.Result()
}

func (m *RemoveOwnerMsg) Unmarshal(raw []byte) error {
	*m = RemoveOwnerMsg{}
	return unmarshalOwnerRef(raw, &m.Metadata, &m.WalletID, &m.Owner)
}

func unmarshalOwnerRef(raw []byte, meta **quorum.Metadata, walletID *[]byte, owner *quorum.Address) error {
	return codec.Decode(raw, func(f codec.Field) (err error) {
		switch f.Num() {
		case 1:
			*meta = &quorum.Metadata{}
			err = f.Message(*meta)
		case 2:
			*walletID, err = f.Bytes()
		case 3:
			*owner, err = f.Bytes()
		}
		return err
	})
}

// ReplaceOwnerMsg puts NewOwner in place of Owner. It is accepted only as
// the payload of a wallet transaction addressed to the wallet itself.
type ReplaceOwnerMsg struct {
	Metadata *quorum.Metadata
	WalletID []byte
	Owner    quorum.Address
	NewOwner quorum.Address
}

func (ReplaceOwnerMsg) Path() string {
	return pathReplaceOwner
}

func (m *ReplaceOwnerMsg) Validate() error {
	errs := validateTxRef(m.Metadata, m.WalletID)
	errs = errors.AppendField(errs, "Owner", m.Owner.Validate())
	errs = errors.AppendField(errs, "NewOwner", validateOwner(m.NewOwner))
	return errs
}

func (m *ReplaceOwnerMsg) Marshal() ([]byte, error) {
	var e codec.Encoder
	e.Message(1, m.Metadata)
	e.Bytes(2, m.WalletID)
	e.Bytes(3, m.Owner)
	e.Bytes(4, m.NewOwner)
	return e.Result()
}

func (m *ReplaceOwnerMsg) Unmarshal(raw []byte) error {
	*m = ReplaceOwnerMsg{}
	return codec.Decode(raw, func(f codec.Field) (err error) {
		switch f.Num() {
		case 1:
			m.Metadata = &quorum.Metadata{}
			err = f.Message(m.Metadata)
		case 2:
			m.WalletID, err = f.Bytes()
		case 3:
			m.Owner, err = f.Bytes()
		case 4:
			m.NewOwner, err = f.Bytes()
		}
		return err
	})
}

// ChangeRequirementMsg sets the threshold of the wallet. It is accepted
// only as the payload of a wallet transaction addressed to the wallet
// itself. The upper bound is checked against the owners on execution.
type ChangeRequirementMsg struct {
	Metadata *quorum.Metadata
	WalletID []byte
	Required uint32
}

func (ChangeRequirementMsg) Path() string {
	return pathChangeRequirement
}

func (m *ChangeRequirementMsg) Validate() error {
	errs := validateTxRef(m.Metadata, m.WalletID)
	if m.Required == 0 {
		errs = errors.AppendField(errs, "Required", errors.Wrap(errors.ErrInput, "must be at least one"))
	}
	return errs
}

func (m *ChangeRequirementMsg) Marshal() ([]byte, error) {
	var e codec.Encoder
	e.Message(1, m.Metadata)
	e.Bytes(2, m.WalletID)
	e.Uint64(3, uint64(m.Required))
	return e.Result()
}

func (m *ChangeRequirementMsg) Unmarshal(raw []byte) error {
	*m = ChangeRequirementMsg{}
	return codec.Decode(raw, func(f codec.Field) (err error) {
		switch f.Num() {
		case 1:
			m.Metadata = &quorum.Metadata{}
			err = f.Message(m.Metadata)
		case 2:
			m.WalletID, err = f.Bytes()
		case 3:
			m.Required, err = f.Uint32()
		}
		return err
	})
}

package recorder

import (
	"context"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"financechain/internal/onchain"
	"financechain/internal/wallet"
	"financechain/internal/wallet/wallettest"
	"financechain/models"
)

type fakeStore struct {
	inputs []models.TransactionInput
	err    error
}

func (s *fakeStore) Record(_ context.Context, in models.TransactionInput) (*models.TransactionResponse, error) {
	s.inputs = append(s.inputs, in)
	if s.err != nil {
		return nil, s.err
	}
	return &models.TransactionResponse{OK: true, TransactionID: "tx-1", BlockID: "block-1"}, nil
}

type fakeSubmitter struct {
	requests []models.SubmissionRequest
	result   *models.SubmissionResult
	err      error
}

func (s *fakeSubmitter) SubmitObserved(_ context.Context, req models.SubmissionRequest, _ onchain.StateFunc) (*models.SubmissionResult, error) {
	s.requests = append(s.requests, req)
	return s.result, s.err
}

const financeAddress = "0x00000000000000000000000000000000000000aa"

func settled(hash string) *models.SubmissionResult {
	status := uint64(1)
	return &models.SubmissionResult{TxHash: hash, Status: &status}
}

func TestRecordOffChain(t *testing.T) {
	store := &fakeStore{}
	r := New(store)

	out, err := r.Record(context.Background(), Entry{Sender: " alice ", Recipient: "bob", Amount: "12,50", Description: "rent"})
	require.NoError(t, err)
	require.Len(t, store.inputs, 1)
	assert.Equal(t, models.TransactionInput{Sender: "alice", Recipient: "bob", Amount: "12.5", Desc: "rent"}, store.inputs[0])
	assert.Nil(t, out.OnChain)
	assert.Equal(t, "tx-1", out.Response.TransactionID)
}

func TestRecordValidation(t *testing.T) {
	store := &fakeStore{}
	r := New(store)

	_, err := r.Record(context.Background(), Entry{Recipient: "bob", Amount: "1"})
	assert.ErrorIs(t, err, ErrMissingSender)
	_, err = r.Record(context.Background(), Entry{Sender: "alice", Amount: "1"})
	assert.ErrorIs(t, err, ErrMissingRecipient)
	for _, amount := range []string{"", "0", "-3", "x"} {
		_, err = r.Record(context.Background(), Entry{Sender: "alice", Recipient: "bob", Amount: amount})
		assert.True(t, errors.Is(err, onchain.ErrInvalidAmount), amount)
	}
	_, err = r.Record(context.Background(), Entry{Sender: "alice", Recipient: "bob", Amount: "1", Mode: Contract})
	assert.ErrorIs(t, err, ErrNoSubmitter)
	_, err = New(store, WithSubmitter(&fakeSubmitter{})).Record(context.Background(), Entry{Sender: "alice", Recipient: "bob", Amount: "1", Mode: Contract})
	assert.ErrorIs(t, err, ErrNoContract)

	assert.Empty(t, store.inputs)
}

func TestRecordContractEntry(t *testing.T) {
	store := &fakeStore{}
	sub := &fakeSubmitter{result: settled("0xfeed")}
	r := New(store, WithSubmitter(sub), WithContract(financeAddress))

	out, err := r.Record(context.Background(), Entry{
		Sender: "alice", Recipient: "bob", Amount: "2.5", Description: "salary", Mode: Contract, Income: true,
	})
	require.NoError(t, err)

	require.Len(t, sub.requests, 1)
	assert.Equal(t, models.ContractCall{
		ContractAddress: financeAddress,
		Amount:          "2.5",
		IsIncome:        true,
		Category:        "general",
		Note:            "salary | to:bob",
	}, sub.requests[0])

	require.Len(t, store.inputs, 1)
	assert.Equal(t, "0xfeed", store.inputs[0].TxHash)
	assert.Same(t, out.OnChain, store.inputs[0].TxMeta)
}

func TestRecordNoteWithoutDescription(t *testing.T) {
	sub := &fakeSubmitter{result: settled("0xfeed")}
	r := New(&fakeStore{}, WithSubmitter(sub), WithContract(financeAddress))

	_, err := r.Record(context.Background(), Entry{Sender: "alice", Recipient: "bob", Amount: "1", Mode: Contract})
	require.NoError(t, err)
	assert.Equal(t, "to:bob", sub.requests[0].(models.ContractCall).Note)
}

func TestRecordRejectedSendsNothing(t *testing.T) {
	store := &fakeStore{}
	sub := &fakeSubmitter{err: errors.Wrap(onchain.ErrUserRejected, "User denied transaction signature")}
	r := New(store, WithSubmitter(sub), WithContract(financeAddress))

	out, err := r.Record(context.Background(), Entry{Sender: "alice", Recipient: "bob", Amount: "1", Mode: Transfer})
	assert.Nil(t, out)
	var phaseErr *PhaseError
	require.True(t, errors.As(err, &phaseErr))
	assert.Equal(t, PhaseOnChain, phaseErr.Phase)
	assert.True(t, errors.Is(err, onchain.ErrUserRejected))
	assert.False(t, phaseErr.Retryable())
	assert.Empty(t, store.inputs)
}

func TestRecordOnChainFailureIsRetryable(t *testing.T) {
	store := &fakeStore{}
	sub := &fakeSubmitter{err: &onchain.SubmissionError{Message: "nonce too low"}}
	_, err := New(store, WithSubmitter(sub)).Record(context.Background(), Entry{Sender: "alice", Recipient: "bob", Amount: "1", Mode: Transfer})

	var phaseErr *PhaseError
	require.True(t, errors.As(err, &phaseErr))
	assert.True(t, phaseErr.Retryable())
	assert.Empty(t, store.inputs)
}

func TestRecordPartialFailureKeepsOnChainReference(t *testing.T) {
	store := &fakeStore{err: errors.New("ledger store unavailable")}
	sub := &fakeSubmitter{result: settled("0xfeed")}
	r := New(store, WithSubmitter(sub), WithContract(financeAddress))

	out, err := r.Record(context.Background(), Entry{Sender: "alice", Recipient: "bob", Amount: "1", Mode: Contract})
	var phaseErr *PhaseError
	require.True(t, errors.As(err, &phaseErr))
	assert.Equal(t, PhaseOffChain, phaseErr.Phase)
	require.NotNil(t, phaseErr.OnChain)
	assert.Equal(t, "0xfeed", phaseErr.OnChain.TxHash)
	assert.False(t, phaseErr.Retryable())
	assert.Contains(t, err.Error(), "0xfeed")
	require.NotNil(t, out)
	assert.Equal(t, "0xfeed", out.OnChain.TxHash)
	assert.Len(t, sub.requests, 1)
}

func TestRecordEndToEndWithKeyWallet(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	from := crypto.PubkeyToAddress(key.PublicKey)
	backend := wallettest.NewBackend(11155111)
	lib := wallet.NewLibrary(func(context.Context, string) (wallet.Backend, error) { return backend, nil }, "mem://")
	shim := wallet.NewShim(key, lib)
	store := &fakeStore{}
	clock := func() time.Time { return time.UnixMilli(1700000000123) }

	r := New(store,
		WithSubmitter(onchain.NewSubmitter(shim).WithPollInterval(time.Millisecond)),
		WithSigner(shim),
		WithContract(financeAddress),
		WithClock(clock),
	)
	recipient := "0xBEEF000000000000000000000000000000000002"

	var states []models.TxState
	out, err := r.Record(context.Background(), Entry{
		Sender: "typed by hand", Recipient: recipient, Amount: "0.01", Description: "coffee",
		Mode: Transfer, Sign: true,
		OnState: func(s models.TxState) { states = append(states, s) },
	})
	require.NoError(t, err)
	assert.Equal(t, []models.TxState{models.StateAuthorizing, models.StateSubmitted, models.StateConfirmed}, states)

	require.Len(t, store.inputs, 1)
	in := store.inputs[0]
	assert.Equal(t, from.Hex(), in.Sender)
	assert.Equal(t, backend.Sent[0].Hash().Hex(), in.TxHash)
	assert.Equal(t, "10000000000000000", *in.TxMeta.Value)

	wantMsg := from.Hex() + "|" + recipient + "|0.01|coffee|1700000000123"
	assert.Equal(t, wantMsg, in.Message)
	assert.Equal(t, from.Hex(), in.Address)
	signer, err := wallet.RecoverTextSigner(in.Message, in.Signature)
	require.NoError(t, err)
	assert.Equal(t, from, signer)
	assert.Equal(t, out.OnChain, in.TxMeta)
}

type failingSigner struct{}

func (failingSigner) Address(context.Context) *common.Address { return nil }

func (failingSigner) SignText(context.Context, string) ([]byte, common.Address, error) {
	return nil, common.Address{}, errors.New("User denied message signature")
}

func TestRecordSigningFailureRecordsUnsigned(t *testing.T) {
	store := &fakeStore{}
	_, err := New(store, WithSigner(failingSigner{})).Record(context.Background(), Entry{Sender: "alice", Recipient: "bob", Amount: "1", Sign: true})
	require.NoError(t, err)
	require.Len(t, store.inputs, 1)
	assert.False(t, store.inputs[0].Present())
}

package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	interfaces "github.com/sheikh-saqib/mock-banking-ledger/internal/interfaces"
	"github.com/sheikh-saqib/mock-banking-ledger/internal/models"
	"github.com/sheikh-saqib/mock-banking-ledger/internal/models/events"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const defaultPublishTimeout = 5 * time.Second

// TransferRequest moves Amount from the sender account to the receiver account.
// An empty IdempotencyKey disables deduplication.
type TransferRequest struct {
	SenderBankID   string
	ReceiverBankID string
	Amount         decimal.Decimal
	Name           string
	IdempotencyKey string
}

type TransferResult struct {
	Transaction models.Transaction
	Replayed    bool // an earlier transfer with the same idempotency key was returned
}

// Ledger runs transfers between accounts.
type Ledger struct {
	accounts     interfaces.AccountRepository
	transactions interfaces.TransactionRepository
	transactor   interfaces.Transactor // optional; without it failed transfers are compensated
	publisher    interfaces.EventPublisher
	log          *zap.Logger
	now          func() time.Time

	publishTimeout time.Duration

	muMap map[string]*sync.Mutex // one mutex per account id
	mapMu sync.Mutex             // protects muMap
}

type Option func(*Ledger)

// WithTransactor makes every transfer commit as one store transaction.
func WithTransactor(t interfaces.Transactor) Option {
	return func(l *Ledger) { l.transactor = t }
}

func WithPublisher(p interfaces.EventPublisher) Option {
	return func(l *Ledger) { l.publisher = p }
}

// WithPublishTimeout bounds how long one event publish may take.
func WithPublishTimeout(d time.Duration) Option {
	return func(l *Ledger) { l.publishTimeout = d }
}

func WithLogger(log *zap.Logger) Option {
	return func(l *Ledger) { l.log = log }
}

func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

func NewLedger(accounts interfaces.AccountRepository, transactions interfaces.TransactionRepository, opts ...Option) *Ledger {
	l := &Ledger{
		accounts:     accounts,
		transactions: transactions,
		log:          zap.NewNop(),
		now:          time.Now,
		muMap:        make(map[string]*sync.Mutex),

		publishTimeout: defaultPublishTimeout,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Ledger) getAccountLock(accountID string) *sync.Mutex {
	l.mapMu.Lock()
	defer l.mapMu.Unlock()

	if _, exists := l.muMap[accountID]; !exists {
		l.muMap[accountID] = &sync.Mutex{}
	}
	return l.muMap[accountID]
}

// lockAccounts locks both accounts in id order so two opposite transfers can't deadlock.
func (l *Ledger) lockAccounts(a, b string) func() {
	if a == b {
		mu := l.getAccountLock(a)
		mu.Lock()
		return mu.Unlock
	}
	if b < a {
		a, b = b, a
	}
	first, second := l.getAccountLock(a), l.getAccountLock(b)
	first.Lock()
	second.Lock()
	return func() {
		second.Unlock()
		first.Unlock()
	}
}

// Transfer debits the sender, credits the receiver and records the transaction.
// No overdraft check is made: the sender balance may go negative.
func (l *Ledger) Transfer(ctx context.Context, req TransferRequest) (TransferResult, error) {
	if !req.Amount.IsPositive() || !req.Amount.Equal(req.Amount.Round(2)) {
		return TransferResult{}, fmt.Errorf("%w: %s", models.ErrInvalidAmount, req.Amount.String())
	}

	result, err := l.commit(ctx, req)
	if err != nil {
		return TransferResult{}, err
	}
	if result.Replayed {
		return result, nil
	}

	record := result.Transaction
	l.log.Info("transfer completed",
		zap.String("transaction_id", record.ID),
		zap.String("sender_bank_id", record.SenderBankID),
		zap.String("receiver_bank_id", record.ReceiverBankID),
		zap.String("amount", record.Amount.StringFixed(2)),
	)
	// the account locks are already released here
	l.publish(ctx, record)
	return result, nil
}

// commit runs the idempotency lookup and the writes while holding the locks
// of both accounts.
func (l *Ledger) commit(ctx context.Context, req TransferRequest) (TransferResult, error) {
	unlock := l.lockAccounts(req.SenderBankID, req.ReceiverBankID)
	defer unlock()

	existing, found, err := l.transactions.FindByIdempotencyKey(ctx, req.IdempotencyKey)
	if err != nil {
		l.logFailure("idempotency lookup failed", req, err)
		return TransferResult{}, err
	}
	if found {
		return TransferResult{Transaction: existing, Replayed: true}, nil
	}

	var record models.Transaction
	if l.transactor != nil {
		err = l.transactor.WithinTransaction(ctx, func(accounts interfaces.AccountRepository, transactions interfaces.TransactionRepository) error {
			var err error
			record, err = l.execute(ctx, accounts, transactions, req, false)
			return err
		})
	} else {
		record, err = l.execute(ctx, l.accounts, l.transactions, req, true)
	}
	if err != nil {
		if replay, ok := l.replayAfterConflict(ctx, req, err); ok {
			return replay, nil
		}
		l.logFailure("transfer failed", req, err)
		return TransferResult{}, err
	}
	return TransferResult{Transaction: record}, nil
}

// replayAfterConflict handles a transfer that lost the race for its
// idempotency key to a concurrent transfer on other accounts. Its own writes
// were rolled back or compensated, so the winner is returned as a replay.
func (l *Ledger) replayAfterConflict(ctx context.Context, req TransferRequest, err error) (TransferResult, bool) {
	var partial *PartialTransferError
	if req.IdempotencyKey == "" || !errors.Is(err, models.ErrDocumentConflict) || errors.As(err, &partial) {
		return TransferResult{}, false
	}

	existing, found, lookupErr := l.transactions.FindByIdempotencyKey(ctx, req.IdempotencyKey)
	if lookupErr != nil || !found {
		return TransferResult{}, false
	}
	return TransferResult{Transaction: existing, Replayed: true}, true
}

// transactionID is derived from the idempotency key when there is one, so the
// store rejects a second transaction with the same key.
func transactionID(idempotencyKey string) string {
	if idempotencyKey == "" {
		return uuid.New().String()
	}
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("idempotency-key:"+idempotencyKey)).String()
}

type balanceRestore struct {
	accountID string
	balance   decimal.Decimal
}

// execute performs the reads and the three writes. When compensate is set the
// writes are not covered by a store transaction, so a failure after the debit
// writes the original balances back.
func (l *Ledger) execute(
	ctx context.Context,
	accounts interfaces.AccountRepository,
	transactions interfaces.TransactionRepository,
	req TransferRequest,
	compensate bool,
) (models.Transaction, error) {
	sender, receiver, err := fetchPair(ctx, accounts, req.SenderBankID, req.ReceiverBankID)
	if err != nil {
		return models.Transaction{}, lookupError(err)
	}

	debited := sender.Balance.Sub(req.Amount)
	credited := receiver.Balance.Add(req.Amount)
	if sender.ID == receiver.ID {
		credited = debited.Add(req.Amount)
	}

	if err := accounts.UpdateBalance(ctx, sender.ID, debited); err != nil {
		return models.Transaction{}, fmt.Errorf("debit sender: %w", err)
	}

	if err := accounts.UpdateBalance(ctx, receiver.ID, credited); err != nil {
		return models.Transaction{}, l.fail(ctx, accounts, req, compensate, "credit receiver", err,
			balanceRestore{sender.ID, sender.Balance},
		)
	}

	record, err := transactions.Create(ctx, models.Transaction{
		ID:             transactionID(req.IdempotencyKey),
		SenderBankID:   sender.ID,
		ReceiverBankID: receiver.ID,
		Amount:         req.Amount,
		Name:           req.Name,
		Channel:        models.ChannelOnline,
		Category:       models.CategoryTransfer,
		Date:           l.now().UTC(),
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		return models.Transaction{}, l.fail(ctx, accounts, req, compensate, "record transaction", err,
			balanceRestore{receiver.ID, receiver.Balance},
			balanceRestore{sender.ID, sender.Balance},
		)
	}
	return record, nil
}

func (l *Ledger) fail(
	ctx context.Context,
	accounts interfaces.AccountRepository,
	req TransferRequest,
	compensate bool,
	step string,
	cause error,
	restores ...balanceRestore,
) error {
	if !compensate {
		return fmt.Errorf("%s: %w", step, cause)
	}

	for _, r := range restores {
		if err := accounts.UpdateBalance(ctx, r.accountID, r.balance); err != nil {
			return &PartialTransferError{
				SenderBankID:    req.SenderBankID,
				ReceiverBankID:  req.ReceiverBankID,
				Amount:          req.Amount,
				Step:            step,
				Err:             cause,
				CompensationErr: err,
			}
		}
	}
	return fmt.Errorf("%w: %s: %w", ErrTransferCompensated, step, cause)
}

// fetchPair reads both accounts in id order, the same order the account locks
// are taken in, so row locks taken by a store transaction are ordered too.
func fetchPair(ctx context.Context, accounts interfaces.AccountRepository, senderID, receiverID string) (models.Account, models.Account, error) {
	if receiverID < senderID {
		receiver, sender, err := fetchPair(ctx, accounts, receiverID, senderID)
		return sender, receiver, err
	}

	sender, err := accounts.GetByID(ctx, senderID)
	if err != nil {
		return models.Account{}, models.Account{}, err
	}
	receiver, err := accounts.GetByID(ctx, receiverID)
	if err != nil {
		return models.Account{}, models.Account{}, err
	}
	return sender, receiver, nil
}

func lookupError(err error) error {
	if errors.Is(err, models.ErrNotFound) {
		return fmt.Errorf("sender or receiver bank not found: %w", err)
	}
	return err
}

func (l *Ledger) publish(ctx context.Context, record models.Transaction) {
	if l.publisher == nil {
		return
	}

	evt := events.TransferCompleted{
		TransactionID:  record.ID,
		SenderBankID:   record.SenderBankID,
		ReceiverBankID: record.ReceiverBankID,
		Amount:         record.Amount,
		Name:           record.Name,
		OccurredAt:     record.Date,
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), l.publishTimeout)
	defer cancel()
	if err := l.publisher.Publish(ctx, record.ID, evt); err != nil {
		l.log.Warn("publish transfer event failed", zap.String("transaction_id", record.ID), zap.Error(err))
	}
}

func (l *Ledger) logFailure(msg string, req TransferRequest, err error) {
	fields := []zap.Field{
		zap.String("sender_bank_id", req.SenderBankID),
		zap.String("receiver_bank_id", req.ReceiverBankID),
		zap.String("amount", req.Amount.String()),
		zap.String("message", err.Error()),
	}

	var remote *models.RemoteError
	if errors.As(err, &remote) {
		fields = append(fields, zap.String("code", remote.Code), zap.String("type", remote.Type))
	}

	var partial *PartialTransferError
	switch {
	case errors.As(err, &partial):
		l.log.Error(msg+": balances left inconsistent", fields...)
	case errors.Is(err, models.ErrNotFound):
		l.log.Info(msg, fields...)
	default:
		l.log.Error(msg, fields...)
	}
}

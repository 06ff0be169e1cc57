package reconcile

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/paysms/internal/apperrors"
	"github.com/nkiryanov/paysms/internal/lock"
	"github.com/nkiryanov/paysms/internal/logger"
	"github.com/nkiryanov/paysms/internal/models"
	"github.com/nkiryanov/paysms/internal/notify"
	"github.com/nkiryanov/paysms/internal/repository"
	"github.com/nkiryanov/paysms/internal/service/ledger"
	"github.com/nkiryanov/paysms/internal/service/matcher"
	"github.com/nkiryanov/paysms/internal/service/resolver"
)

const defaultTimeout = 30 * time.Second

type Classifier interface {
	IsPaymentSender(sender string) bool
	Classify(rawText string, sender string) models.PaymentEvent
}

// Notifier must not block, delivery failures are its own concern
type Notifier interface {
	Notify(ctx context.Context, target string, text string)
}

type Deps struct {
	Storage    repository.Storage
	Classifier Classifier
	Resolver   *resolver.Resolver
	Ledger     *ledger.Engine
	Locker     lock.Locker
	Notifier   Notifier
	Logger     logger.Logger
}

type Option func(*Service)

// Upper bound for the storage work of one message
func WithTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// Service turns inbound SMS into credited deposits or stored claims
type Service struct {
	storage    repository.Storage
	classifier Classifier
	resolver   *resolver.Resolver
	ledger     *ledger.Engine
	locker     lock.Locker
	notifier   Notifier
	logger     logger.Logger
	timeout    time.Duration
}

func New(deps Deps, opts ...Option) *Service {
	s := &Service{
		storage:    deps.Storage,
		classifier: deps.Classifier,
		resolver:   deps.Resolver,
		ledger:     deps.Ledger,
		locker:     deps.Locker,
		notifier:   deps.Notifier,
		logger:     deps.Logger,
		timeout:    defaultTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ingest handles one SMS and returns its terminal state
//
// A message delivered again returns the outcome of the first delivery with Replayed set
// and changes nothing. Returned errors are storage failures, the caller may retry them.
func (s *Service) Ingest(ctx context.Context, rawText string, sender string) (Outcome, error) {
	if !s.classifier.IsPaymentSender(sender) {
		s.logger.Debug("message ignored, unknown sender", "sender", sender)
		return rejected(models.PaymentEvent{Kind: models.EventUnknown, RawText: rawText}, ReasonNotPaymentSender), nil
	}

	event := s.classifier.Classify(rawText, sender)
	l := s.logger.With("tx_id", event.NetworkTxID, "kind", event.Kind)

	switch {
	case event.Kind == models.EventUnknown:
		l.Info("message not recognized", "sender", sender, "text", rawText)
		return rejected(event, ReasonUnknownKind), nil
	case !event.Amount.IsPositive():
		l.Info("message with non positive amount", "amount", event.Amount, "text", rawText)
		return rejected(event, ReasonInvalidAmount), nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if !event.HasPhone() {
		return s.storeClaim(ctx, event, models.ClaimReasonNoPhone, nil)
	}

	unlock, err := s.lockPhone(ctx, event.SourcePhone)
	if err != nil {
		return Outcome{}, err
	}
	defer unlock()

	prior, ok, err := s.replay(ctx, event)
	if err != nil || ok {
		return prior, err
	}

	user, err := s.resolver.ResolveUser(ctx, event.SourcePhone)
	switch {
	case errors.Is(err, apperrors.ErrUserNotFound):
		return s.storeClaim(ctx, event, models.ClaimReasonUnmatchedUser, nil)
	case err != nil:
		return Outcome{}, err
	}

	outcome, err := s.settle(ctx, user, event, nil)
	if errors.Is(err, apperrors.ErrNoOpenDeposit) {
		return s.storeClaim(ctx, event, models.ClaimReasonUnmatchedDeposit, &user)
	}
	if err != nil {
		return Outcome{}, err
	}

	l.Info("payment handled", "state", outcome.State, "user_id", user.ID, "deposit_id", outcome.DepositID, "result", outcome.Result.Kind, "replayed", outcome.Replayed)
	s.notifySettled(ctx, outcome)

	return outcome, nil
}

// Claim credits a stored payment to the user who names its transaction id
func (s *Service) Claim(ctx context.Context, userID uuid.UUID, networkTxID string) (Outcome, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	user, err := s.storage.User().GetUser(ctx, userID)
	if err != nil {
		return Outcome{}, err
	}

	unlock, err := s.lockPhone(ctx, user.PhoneNumber)
	if err != nil {
		return Outcome{}, err
	}
	defer unlock()

	claim, err := s.storage.Claim().GetClaim(ctx, networkTxID)
	if err != nil {
		return Outcome{}, err
	}
	if claim.Claimed {
		return Outcome{}, apperrors.ErrClaimNotFound
	}
	if claim.Phone != "" && !samePhone(claim.Phone, user.PhoneNumber) {
		return Outcome{}, apperrors.ErrClaimNotOwned
	}

	outcome, err := s.settle(ctx, user, claim.Event(), &claim.ID)
	if err != nil {
		return Outcome{}, err
	}
	outcome.Claim = &claim

	s.logger.Info("claim settled", "tx_id", networkTxID, "user_id", user.ID, "result", outcome.Result.Kind)
	s.notifySettled(ctx, outcome)

	return outcome, nil
}

// Rematch settles a stored payment once its phone resolves to a user with an open deposit
// apperrors.ErrUserNotFound and apperrors.ErrNoOpenDeposit mean it is still unattributed
func (s *Service) Rematch(ctx context.Context, networkTxID string) (Outcome, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	claim, err := s.storage.Claim().GetClaim(ctx, networkTxID)
	if err != nil {
		return Outcome{}, err
	}
	if claim.Phone == "" {
		return Outcome{}, apperrors.ErrUserNotFound
	}

	unlock, err := s.lockPhone(ctx, claim.Phone)
	if err != nil {
		return Outcome{}, err
	}
	defer unlock()

	// Could be claimed by hand while waiting for the lock
	claim, err = s.storage.Claim().GetClaim(ctx, networkTxID)
	if err != nil {
		return Outcome{}, err
	}
	if claim.Claimed {
		return Outcome{}, apperrors.ErrClaimNotFound
	}

	user, err := s.resolver.ResolveUser(ctx, claim.Phone)
	if err != nil {
		return Outcome{}, err
	}

	outcome, err := s.settle(ctx, user, claim.Event(), &claim.ID)
	if err != nil {
		return Outcome{}, err
	}
	outcome.Claim = &claim

	s.logger.Info("stored payment rematched", "tx_id", networkTxID, "user_id", user.ID, "reason", claim.Reason, "result", outcome.Result.Kind)
	s.notifySettled(ctx, outcome)

	return outcome, nil
}

func (s *Service) ListClaims(ctx context.Context, onlyUnclaimed bool) ([]models.PendingClaim, error) {
	return s.storage.Claim().ListClaims(ctx, onlyUnclaimed)
}

// Match against open deposits and settle, once more if the chosen deposit got completed meanwhile
func (s *Service) settle(ctx context.Context, user models.User, event models.PaymentEvent, claimID *uuid.UUID) (Outcome, error) {
	for attempt := 0; ; attempt++ {
		deposits, err := s.resolver.OpenDeposits(ctx, user.ID)
		if err != nil {
			return Outcome{}, err
		}

		deposit, ok := matcher.Match(event, deposits)
		if !ok {
			return Outcome{}, apperrors.ErrNoOpenDeposit
		}

		settlement, err := s.ledger.Settle(ctx, ledger.SettleParams{
			UserID:    user.ID,
			DepositID: deposit.ID,
			Event:     event,
			ClaimID:   claimID,
		})
		if errors.Is(err, apperrors.ErrDepositCompleted) && attempt == 0 {
			s.logger.Warn("deposit completed concurrently, matching again", "deposit_id", deposit.ID, "tx_id", event.NetworkTxID)
			continue
		}
		if err != nil {
			return Outcome{}, err
		}

		if settlement.Result.Kind == models.ResultRejected {
			return Outcome{
				State:     StateRejected,
				Reason:    settlement.Result.Reason,
				Event:     event,
				UserID:    user.ID,
				DepositID: deposit.ID,
				Currency:  deposit.Currency,
				Result:    settlement.Result,
			}, nil
		}

		if settlement.Replayed {
			event.NetworkTxID = settlement.Payment.NetworkTxID
		}
		return Outcome{
			State:     StateSettled,
			Event:     event,
			UserID:    user.ID,
			DepositID: settlement.Deposit.ID,
			Currency:  settlement.Deposit.Currency,
			Result:    settlement.Result,
			Replayed:  settlement.Replayed,
		}, nil
	}
}

// Outcome of an earlier delivery of the same transaction, if any
// Messages without a network id are looked up by text first, their ids differ between deliveries
func (s *Service) replay(ctx context.Context, event models.PaymentEvent) (Outcome, bool, error) {
	payment, err := s.priorPayment(ctx, event)
	switch {
	case err == nil:
		if event.SyntheticTxID && payment.RawText != event.RawText {
			return Outcome{}, false, fmt.Errorf("replay %s: %w", event.NetworkTxID, apperrors.ErrTxIDCollision)
		}
		event.NetworkTxID = payment.NetworkTxID
		return Outcome{
			State:     StateSettled,
			Event:     event,
			UserID:    payment.UserID,
			DepositID: payment.DepositID,
			Currency:  payment.Currency,
			Result: ledger.CreditResult{
				Kind:           payment.Result,
				AmountCredited: payment.AmountCredited,
				Bonus:          payment.Bonus,
				NewBalance:     payment.NewBalance,
				PendingTotal:   payment.PendingTotal,
			},
			Replayed: true,
		}, true, nil
	case !errors.Is(err, apperrors.ErrPaymentNotFound):
		return Outcome{}, false, err
	}

	claim, err := s.priorClaim(ctx, event)
	switch {
	case err == nil:
		event.NetworkTxID = claim.NetworkTxID
		return Outcome{State: claimState(claim.Reason), Event: event, Claim: &claim, Replayed: true}, true, nil
	case errors.Is(err, apperrors.ErrClaimNotFound):
		return Outcome{}, false, nil
	default:
		return Outcome{}, false, err
	}
}

func (s *Service) priorPayment(ctx context.Context, event models.PaymentEvent) (models.Payment, error) {
	if event.SyntheticTxID {
		payment, err := s.storage.Payment().FindSynthetic(ctx, event.RawText)
		if !errors.Is(err, apperrors.ErrPaymentNotFound) {
			return payment, err
		}
	}
	return s.storage.Payment().GetPayment(ctx, event.NetworkTxID)
}

func (s *Service) priorClaim(ctx context.Context, event models.PaymentEvent) (models.PendingClaim, error) {
	if event.SyntheticTxID {
		claim, err := s.storage.Claim().FindSynthetic(ctx, event.RawText)
		if !errors.Is(err, apperrors.ErrClaimNotFound) {
			return claim, err
		}
	}
	return s.storage.Claim().GetClaim(ctx, event.NetworkTxID)
}

// Keep the payment for manual reconciliation and tell the operator
func (s *Service) storeClaim(ctx context.Context, event models.PaymentEvent, reason string, user *models.User) (Outcome, error) {
	if reason == models.ClaimReasonNoPhone {
		// Claimed payments are settled under the same tx id
		prior, ok, err := s.replay(ctx, event)
		if err != nil || ok {
			return prior, err
		}
	}

	claim, created, err := s.storage.Claim().InsertClaim(ctx, models.PendingClaim{
		NetworkTxID:   event.NetworkTxID,
		Kind:          event.Kind,
		Amount:        event.Amount,
		Phone:         event.SourcePhone,
		RawText:       event.RawText,
		Reason:        reason,
		SyntheticTxID: event.SyntheticTxID,
	})
	if err != nil {
		return Outcome{}, fmt.Errorf("store claim %s: %w", event.NetworkTxID, err)
	}

	event.NetworkTxID = claim.NetworkTxID
	outcome := Outcome{
		State:    claimState(claim.Reason),
		Event:    event,
		Claim:    &claim,
		Replayed: !created,
	}
	if user != nil {
		outcome.UserID = user.ID
	}

	if !created {
		return outcome, nil
	}

	s.logger.Warn("payment stored for claim", "tx_id", event.NetworkTxID, "reason", reason, "phone", event.SourcePhone, "text", event.RawText)

	s.notifier.Notify(ctx, notify.TargetAdmin, adminClaimText(claim))
	if reason == models.ClaimReasonUnmatchedDeposit && user != nil {
		s.notifier.Notify(ctx, notify.TargetUser(user.ID), userNoDepositText(event))
	}

	return outcome, nil
}

// The SMS and the stored user may spell the phone differently, the key is the canonical form
func (s *Service) lockPhone(ctx context.Context, phone string) (lock.Unlock, error) {
	canonical := resolver.CanonicalPhone(phone)
	unlock, err := s.locker.Lock(ctx, lock.PhoneKey(canonical))
	if err != nil {
		return nil, fmt.Errorf("lock phone %s: %w", canonical, err)
	}
	return unlock, nil
}

func (s *Service) notifySettled(ctx context.Context, o Outcome) {
	if o.Replayed || o.State != StateSettled {
		return
	}
	s.notifier.Notify(ctx, notify.TargetAdmin, adminSettledText(o))
	s.notifier.Notify(ctx, notify.TargetUser(o.UserID), userSettledText(o))
}

func rejected(event models.PaymentEvent, reason string) Outcome {
	return Outcome{State: StateRejected, Reason: reason, Event: event}
}

// Phones match when any lookup form of one contains the other
func samePhone(a string, b string) bool {
	b = resolver.NormalizePhone(b)
	if b == "" {
		return false
	}
	for _, candidate := range resolver.PhoneCandidates(a) {
		if strings.Contains(candidate, b) || strings.Contains(b, candidate) {
			return true
		}
	}
	return false
}

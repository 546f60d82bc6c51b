package payment

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"net/url"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/novelreads-coin-ledger/internal/config"
	"github.com/novelreads-coin-ledger/internal/domain/activity"
	"github.com/novelreads-coin-ledger/internal/domain/coin"
	domain "github.com/novelreads-coin-ledger/internal/domain/payment"
	"github.com/novelreads-coin-ledger/internal/ledger"
	"github.com/novelreads-coin-ledger/internal/platform/persistence"
)

// gatewayTimeFormat is the timestamp layout the gateway expects
const gatewayTimeFormat = "20060102150405"

// responseCodeSuccess is the gateway code for an approved payment;
// responseCodeCancelled means the customer abandoned the checkout.
const (
	responseCodeSuccess   = "00"
	responseCodeCancelled = "24"
)

// gatewayZone is the fixed offset the gateway stamps into its timestamps
var gatewayZone = time.FixedZone("GMT+7", 7*60*60)

// minCustomAmount is the smallest custom purchase the gateway accepts, in VND
var minCustomAmount = decimal.NewFromInt(10000)

type paymentService struct {
	db       persistence.TxRunner
	ledger   ledger.Service
	payments domain.Repository
	packages domain.PackageRepository
	outbox   activity.OutboxRepository
	signer   *Signer
	cfg      *config.GatewayConfig
	logger   *slog.Logger
}

// NewService creates the payment service
func NewService(
	logger *slog.Logger,
	db persistence.TxRunner,
	ledgerService ledger.Service,
	payments domain.Repository,
	packages domain.PackageRepository,
	outbox activity.OutboxRepository,
	cfg *config.GatewayConfig,
) Service {
	return &paymentService{
		db:       db,
		ledger:   ledgerService,
		payments: payments,
		packages: packages,
		outbox:   outbox,
		signer:   NewSigner(cfg.SecretKey),
		cfg:      cfg,
		logger:   logger,
	}
}

// CreatePayment records a pending payment and builds the signed redirect URL.
// The coin total is fixed at creation time so the callback credits exactly
// what was quoted, even if packages or tiers change in between.
func (s *paymentService) CreatePayment(ctx context.Context, req CreateRequest) (*CreateResult, error) {
	var (
		amount    = req.Amount
		coins     int64
		packageID *int64
	)

	if req.PackageID != nil {
		pkg, err := s.packages.GetByID(ctx, *req.PackageID)
		if err != nil {
			return nil, err
		}
		amount = pkg.Price
		coins = pkg.TotalCoins()
		packageID = req.PackageID
	} else {
		if amount.LessThan(minCustomAmount) {
			return nil, ErrInvalidAmount
		}
		coins = domain.CoinsForAmount(amount)
	}

	ref, err := newTransactionRef()
	if err != nil {
		return nil, err
	}

	p := domain.NewPayment(req.UserID, ref, amount, coins, packageID)

	payURL, err := s.buildPayURL(p, req.ClientIP)
	if err != nil {
		return nil, err
	}
	p.PayURL = payURL

	if err := s.payments.Create(ctx, p); err != nil {
		return nil, err
	}

	s.logger.Info("Created pending payment",
		"user_id", req.UserID,
		"transaction_ref", ref,
		"amount", amount.String(),
		"coins", coins,
	)

	return &CreateResult{Payment: p, PayURL: payURL}, nil
}

// Reconcile settles a payment from gateway callback parameters. The status
// re-read and the coin credit run under one row lock, so a replayed callback
// observes the terminal status and acknowledges without crediting again.
func (s *paymentService) Reconcile(ctx context.Context, params url.Values, correlationID string) (*ReconcileResult, error) {
	if s.cfg.VerifyCallback {
		if !s.signer.Verify(params, params.Get("vnp_SecureHash")) {
			return nil, ErrInvalidSignature
		}
	}

	ref := params.Get("vnp_TxnRef")
	if ref == "" {
		return nil, domain.ErrPaymentNotFound{TransactionRef: ref}
	}
	code := params.Get("vnp_ResponseCode")

	var result *ReconcileResult
	err := s.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		p, txErr := s.payments.WithTx(tx).GetByTransactionRefForUpdate(ctx, ref)
		if txErr != nil {
			return txErr
		}

		target := domain.StatusFailed
		switch code {
		case responseCodeSuccess:
			target = domain.StatusCompleted
		case responseCodeCancelled:
			target = domain.StatusCancelled
		}

		p.CallbackData = params.Encode()
		if txErr := p.Transition(target, code); txErr != nil {
			if errors.Is(txErr, domain.ErrAlreadyReconciled{}) {
				result = &ReconcileResult{Payment: p, Replayed: true}
				return nil
			}
			return txErr
		}

		if txErr := s.payments.WithTx(tx).UpdateStatus(ctx, p); txErr != nil {
			return txErr
		}

		if target == domain.StatusCompleted {
			entry, txErr := s.ledger.ApplyCredit(ctx, tx, ledger.CreditRequest{
				UserID:        p.UserID,
				Type:          coin.TransactionTypePurchase,
				Amount:        p.Coins,
				Description:   fmt.Sprintf("Purchased %d coins", p.Coins),
				ReferenceID:   p.TransactionRef,
				CorrelationID: correlationID,
			})
			if txErr != nil {
				return txErr
			}
			if txErr := s.enqueueEvent(ctx, tx, activity.KindPaymentCompleted, p, entry.BalanceAfter, correlationID); txErr != nil {
				return txErr
			}
		} else {
			if txErr := s.enqueueEvent(ctx, tx, activity.KindPaymentFailed, p, 0, correlationID); txErr != nil {
				return txErr
			}
		}

		result = &ReconcileResult{Payment: p}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Replayed {
		s.logger.Info("Ignored replayed payment callback",
			"transaction_ref", ref,
			"status", string(result.Payment.Status),
		)
	} else {
		s.logger.Info("Reconciled payment",
			"transaction_ref", ref,
			"status", string(result.Payment.Status),
			"gateway_code", code,
		)
	}

	return result, nil
}

// History returns a page of the user's payments plus the total count
func (s *paymentService) History(ctx context.Context, userID int64, limit, offset int) ([]*domain.Payment, int64, error) {
	payments, err := s.payments.ListByUserID(ctx, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.payments.CountByUserID(ctx, userID)
	if err != nil {
		return nil, 0, err
	}

	return payments, total, nil
}

// ListPackages returns the purchasable coin packages
func (s *paymentService) ListPackages(ctx context.Context) ([]*domain.CoinPackage, error) {
	return s.packages.ListActive(ctx)
}

// buildPayURL assembles the gateway redirect URL. The amount is stamped in
// minor units (x100) per the gateway convention, and the expiry window bounds
// how long the checkout stays valid.
func (s *paymentService) buildPayURL(p *domain.Payment, clientIP string) (string, error) {
	now := time.Now().In(gatewayZone)

	params := url.Values{}
	params.Set("vnp_Version", "2.1.0")
	params.Set("vnp_Command", "pay")
	params.Set("vnp_TmnCode", s.cfg.MerchantCode)
	params.Set("vnp_Amount", p.Amount.Mul(decimal.NewFromInt(100)).StringFixed(0))
	params.Set("vnp_CurrCode", "VND")
	params.Set("vnp_TxnRef", p.TransactionRef)
	params.Set("vnp_OrderInfo", fmt.Sprintf("Coin purchase %s", p.TransactionRef))
	params.Set("vnp_OrderType", "other")
	params.Set("vnp_Locale", "vn")
	params.Set("vnp_ReturnUrl", s.cfg.ReturnURL)
	params.Set("vnp_IpAddr", clientIP)
	params.Set("vnp_CreateDate", now.Format(gatewayTimeFormat))
	params.Set("vnp_ExpireDate", now.Add(s.cfg.ExpireWindow).Format(gatewayTimeFormat))

	return s.cfg.PayURL + "?" + s.signer.SignedQuery(params), nil
}

// enqueueEvent writes a payment activity event to the outbox within the transaction
func (s *paymentService) enqueueEvent(ctx context.Context, tx pgx.Tx, kind activity.Kind, p *domain.Payment, balanceAfter int64, correlationID string) error {
	amount := p.Coins
	if kind == activity.KindPaymentFailed {
		amount = 0
	}
	event := activity.NewEvent(kind, p.UserID, amount, balanceAfter)
	event.ReferenceID = p.TransactionRef
	event.Description = "Payment " + string(p.Status)
	event.CorrelationID = correlationID

	message, err := activity.NewOutboxMessage(event)
	if err != nil {
		return fmt.Errorf("failed to build outbox message: %w", err)
	}

	return s.outbox.WithTx(tx).Create(ctx, message)
}

// newTransactionRef generates the 8-digit merchant reference the gateway
// echoes back in callbacks.
func newTransactionRef() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(100000000))
	if err != nil {
		return "", fmt.Errorf("failed to generate transaction ref: %w", err)
	}
	ref := strconv.FormatInt(n.Int64(), 10)
	for len(ref) < 8 {
		ref = "0" + ref
	}
	return ref, nil
}

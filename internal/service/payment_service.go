// FILE: internal/service/payment_service.go
package service

import (
	"context"
	"crypto/sha512"
	"fmt"
	"strings"
	"time"

	"captionchecker-be/internal/apperr"
	"captionchecker-be/internal/config"
	"captionchecker-be/internal/dto"
	"captionchecker-be/internal/entity"
	"captionchecker-be/internal/pkg/logger"
	"captionchecker-be/internal/repository/specification"
	"captionchecker-be/internal/repository/unitofwork"

	"captionchecker-be/pkg/events"
	pktNats "captionchecker-be/pkg/nats"

	"github.com/google/uuid"
	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/coreapi"
	"github.com/midtrans/midtrans-go/snap"
)

const orderIdPrefix = "cc"

// TransactionChecker is the slice of the midtrans core API the reconciler
// needs; narrowed for testability.
type TransactionChecker interface {
	CheckTransaction(orderId string) (*coreapi.TransactionStatusResponse, *midtrans.Error)
}

type IPaymentService interface {
	Checkout(ctx context.Context, userId uuid.UUID, req *dto.CheckoutRequest) (*dto.CheckoutResponse, error)
	UpdatePlan(ctx context.Context, req *dto.UpdatePlanRequest) error
	HandleNotification(ctx context.Context, req *dto.PaymentWebhookRequest) error
}

type paymentService struct {
	uowFactory     unitofwork.RepositoryFactory
	planTable      entity.PlanTable
	snapClient     *snap.Client
	checker        TransactionChecker
	serverKey      string
	clientURL      string
	eventPublisher *pktNats.Publisher
	log            logger.ILogger
}

func NewPaymentService(
	uowFactory unitofwork.RepositoryFactory,
	planTable entity.PlanTable,
	cfg config.PaymentConfig,
	clientURL string,
	eventPublisher *pktNats.Publisher,
	log logger.ILogger,
) IPaymentService {
	env := midtrans.Sandbox
	if cfg.IsProduction {
		env = midtrans.Production
	}

	var sClient snap.Client
	sClient.New(cfg.ServerKey, env)

	var cClient coreapi.Client
	cClient.New(cfg.ServerKey, env)

	return &paymentService{
		uowFactory:     uowFactory,
		planTable:      planTable,
		snapClient:     &sClient,
		checker:        &cClient,
		serverKey:      cfg.ServerKey,
		clientURL:      clientURL,
		eventPublisher: eventPublisher,
		log:            log,
	}
}

// Checkout creates a payment-gateway order for a paid plan. The order id
// encodes the plan and user so the webhook can reconcile without extra
// storage: cc-<plan>-<userId>.
func (s *paymentService) Checkout(ctx context.Context, userId uuid.UUID, req *dto.CheckoutRequest) (*dto.CheckoutResponse, error) {
	plan, ok := s.planTable.Get(req.Plan)
	if !ok || plan.Price <= 0 {
		return nil, fmt.Errorf("%w: %q", apperr.ErrInvalidPlan, req.Plan)
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("%w: user not found", apperr.ErrNotFound)
	}

	orderId := fmt.Sprintf("%s-%s-%s", orderIdPrefix, plan.Slug, userId)

	snapReq := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  orderId,
			GrossAmt: plan.Price,
		},
		CreditCard: &snap.CreditCardDetails{
			Secure: true,
		},
		Callbacks: &snap.Callbacks{
			Finish: s.clientURL + "/payment/success",
		},
		CustomerDetail: &midtrans.CustomerDetails{
			FName: user.FullName,
			Email: user.Email,
		},
		Items: &[]midtrans.ItemDetails{
			{
				ID:    plan.Slug,
				Price: plan.Price,
				Qty:   1,
				Name:  "CaptionChecker " + plan.Name,
			},
		},
		EnabledPayments: snap.AllSnapPaymentType,
	}

	snapResp, midErr := s.snapClient.CreateTransaction(snapReq)
	if midErr != nil {
		return nil, fmt.Errorf("%w: payment gateway: %v", apperr.ErrUpstream, midErr.GetMessage())
	}

	return &dto.CheckoutResponse{
		OrderId:         orderId,
		SnapToken:       snapResp.Token,
		SnapRedirectUrl: snapResp.RedirectURL,
	}, nil
}

// UpdatePlan applies a client-asserted payment confirmation. The payment
// reference is verified against the gateway before anything changes:
// a client-supplied id alone never upgrades a plan.
func (s *paymentService) UpdatePlan(ctx context.Context, req *dto.UpdatePlanRequest) error {
	plan, ok := s.planTable.Get(req.PlanId)
	if !ok || plan.Price <= 0 {
		return fmt.Errorf("%w: %q", apperr.ErrInvalidPlan, req.PlanId)
	}

	userId, err := uuid.Parse(req.UserId)
	if err != nil {
		return fmt.Errorf("%w: invalid user id", apperr.ErrValidation)
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil {
		return err
	}
	if user == nil {
		return fmt.Errorf("%w: user not found", apperr.ErrNotFound)
	}
	// A settled payment upgrades a plan exactly once; re-submitting the
	// same reference would otherwise reset the usage counters.
	if user.PaymentId != nil && *user.PaymentId == req.PaymentId {
		return fmt.Errorf("%w: payment %s already applied", apperr.ErrConflict, req.PaymentId)
	}

	status, midErr := s.checker.CheckTransaction(req.PaymentId)
	if midErr != nil {
		return fmt.Errorf("%w: payment verification failed: %v", apperr.ErrUpstream, midErr.GetMessage())
	}
	if status.TransactionStatus != "settlement" && status.TransactionStatus != "capture" {
		return fmt.Errorf("%w: payment %s is not settled", apperr.ErrUnauthenticated, req.PaymentId)
	}
	// The order id encodes what was bought and by whom; a payment settled
	// for a cheaper plan or another user must not apply this one.
	expectedOrder := fmt.Sprintf("%s-%s-%s", orderIdPrefix, plan.Slug, userId)
	if status.OrderID != expectedOrder {
		return fmt.Errorf("%w: payment %s does not match the requested plan", apperr.ErrUnauthenticated, req.PaymentId)
	}

	return s.applyPlan(ctx, userId, plan, req.PaymentId)
}

// HandleNotification is the server-to-server webhook path: the signature
// proves the gateway sent it.
func (s *paymentService) HandleNotification(ctx context.Context, req *dto.PaymentWebhookRequest) error {
	if s.serverKey == "" {
		return fmt.Errorf("%w: payment server key not configured", apperr.ErrUpstream)
	}

	// Midtrans signature = SHA512(order_id + status_code + gross_amount + server_key)
	signatureInput := req.OrderId + req.StatusCode + req.GrossAmount + s.serverKey
	expectedSignature := fmt.Sprintf("%x", sha512.Sum512([]byte(signatureInput)))
	if req.SignatureKey != expectedSignature {
		return fmt.Errorf("%w: invalid signature", apperr.ErrUnauthenticated)
	}

	switch req.TransactionStatus {
	case "capture", "settlement":
		// fallthrough to reconciliation below
	case "pending":
		return nil
	default:
		s.log.Info("payment", "webhook with non-success status, no action", map[string]interface{}{
			"order_id": req.OrderId,
			"status":   req.TransactionStatus,
		})
		return nil
	}

	planSlug, userId, err := parseOrderId(req.OrderId)
	if err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrValidation, err)
	}

	plan, ok := s.planTable.Get(planSlug)
	if !ok {
		return fmt.Errorf("%w: %q", apperr.ErrInvalidPlan, planSlug)
	}

	paymentId := req.TransactionId
	if paymentId == "" {
		paymentId = req.OrderId
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil {
		return err
	}
	if user == nil {
		return fmt.Errorf("%w: user not found", apperr.ErrNotFound)
	}
	// The gateway retries notifications; acknowledge a transaction that
	// already upgraded the plan without resetting the counters again.
	if user.PaymentId != nil && *user.PaymentId == paymentId {
		return nil
	}

	return s.applyPlan(ctx, userId, plan, paymentId)
}

func (s *paymentService) applyPlan(ctx context.Context, userId uuid.UUID, plan entity.Plan, paymentId string) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	err := uow.UserRepository().ApplyPlan(ctx, userId, plan.Slug, paymentId, plan.MaxRequests, plan.MaxImageRequests)
	if err != nil {
		return err
	}

	if s.eventPublisher != nil {
		evt := events.BaseEvent{
			Type: "PLAN_UPGRADED",
			Data: map[string]interface{}{
				"user_id":    userId,
				"plan":       plan.Slug,
				"payment_id": paymentId,
			},
			OccurredAt: time.Now(),
		}
		if err := s.eventPublisher.Publish(ctx, evt); err != nil {
			s.log.Warn("payment", "failed to publish event", map[string]interface{}{
				"event": "PLAN_UPGRADED",
				"error": err.Error(),
			})
		}
	}

	s.log.Info("payment", "plan applied", map[string]interface{}{
		"user_id": userId,
		"plan":    plan.Slug,
	})
	return nil
}

// parseOrderId splits cc-<plan>-<uuid>; plan slugs contain no dashes.
func parseOrderId(orderId string) (string, uuid.UUID, error) {
	parts := strings.SplitN(orderId, "-", 3)
	if len(parts) != 3 || parts[0] != orderIdPrefix {
		return "", uuid.Nil, fmt.Errorf("unrecognized order id %q", orderId)
	}
	userId, err := uuid.Parse(parts[2])
	if err != nil {
		return "", uuid.Nil, fmt.Errorf("invalid user id in order %q", orderId)
	}
	return parts[1], userId, nil
}

package handlers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"campusrent/server/internal/database"
	"campusrent/server/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var errInsufficientBalance = errors.New("insufficient balance")

// walletQuerier is the slice of pgx used by the wallet ledger; both
// *pgxpool.Pool and pgx.Tx satisfy it
type walletQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TopUpRequest represents wallet top-up request body
type TopUpRequest struct {
	Amount    float64 `json:"amount"`
	PaymentID string  `json:"payment_id"`
}

// WithdrawRequest represents wallet withdraw request body
type WithdrawRequest struct {
	Amount float64 `json:"amount"`
	UPI    string  `json:"upi"`
}

// GetWallet returns the caller's balance summary derived from the
// transactions ledger
func GetWallet(c *fiber.Ctx) error {
	userID := c.Locals("userID").(string)

	summary, err := walletSummary(context.Background(), database.Pool, userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Database error",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    summary,
	})
}

// TopUp records a wallet credit backed by a checkout payment reference
func TopUp(c *fiber.Ctx) error {
	userID := c.Locals("userID").(string)

	var req TopUpRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid request body",
		})
	}

	if req.Amount <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Amount must be positive",
		})
	}

	var reference *string
	if req.PaymentID != "" {
		reference = &req.PaymentID
	}

	var txn models.Transaction
	err := database.Pool.QueryRow(context.Background(), `
		INSERT INTO wallet_transactions (user_id, kind, amount, reference, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, user_id, kind, amount, reference, upi, created_at
	`, userID, models.TxnTopUp, req.Amount, reference, time.Now()).
		Scan(&txn.ID, &txn.UserID, &txn.Kind, &txn.Amount, &txn.Reference, &txn.UPI, &txn.CreatedAt)

	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to record top-up",
		})
	}

	notifyUser(userID, models.NotifWallet, "Wallet Top-up",
		fmt.Sprintf("₹%.2f added to your wallet", req.Amount))

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    txn,
	})
}

// Withdraw records a wallet debit to the given UPI id
func Withdraw(c *fiber.Ctx) error {
	userID := c.Locals("userID").(string)

	var req WithdrawRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid request body",
		})
	}

	if req.Amount <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Amount must be positive",
		})
	}

	if req.UPI == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "UPI id is required",
		})
	}

	ctx := context.Background()
	tx, err := database.Pool.Begin(ctx)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Database error",
		})
	}
	defer tx.Rollback(ctx)

	txn, err := debitWallet(ctx, tx, userID, req.Amount, req.UPI)
	if errors.Is(err, errInsufficientBalance) {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"success": false,
			"error":   "Insufficient balance",
		})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to record withdrawal",
		})
	}

	if err := tx.Commit(ctx); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to record withdrawal",
		})
	}

	notifyUser(userID, models.NotifWallet, "Withdrawal Requested",
		fmt.Sprintf("₹%.2f will be sent to %s", req.Amount, req.UPI))

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    txn,
	})
}

// debitWallet records a withdrawal after re-checking the balance. The
// advisory lock serializes ledger writes for one user, so two
// concurrent withdrawals cannot both pass the check and drive the
// balance negative. Must run inside a transaction; the lock releases
// on commit or rollback.
func debitWallet(ctx context.Context, q walletQuerier, userID string, amount float64, upi string) (models.Transaction, error) {
	var txn models.Transaction

	if _, err := q.Exec(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", userID); err != nil {
		return txn, err
	}

	summary, err := walletSummary(ctx, q, userID)
	if err != nil {
		return txn, err
	}
	if amount > summary.Balance {
		return txn, errInsufficientBalance
	}

	err = q.QueryRow(ctx, `
		INSERT INTO wallet_transactions (user_id, kind, amount, upi, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, user_id, kind, amount, reference, upi, created_at
	`, userID, models.TxnWithdraw, amount, upi, time.Now()).
		Scan(&txn.ID, &txn.UserID, &txn.Kind, &txn.Amount, &txn.Reference, &txn.UPI, &txn.CreatedAt)

	return txn, err
}

// walletSummary folds the ledger into a balance view. Top-ups and
// earnings credit; withdrawals and fees debit.
func walletSummary(ctx context.Context, q walletQuerier, userID string) (models.WalletSummary, error) {
	var summary models.WalletSummary

	err := q.QueryRow(ctx, `
		SELECT
			COALESCE(SUM(CASE WHEN kind IN ('topup', 'earning') THEN amount ELSE -amount END), 0),
			COALESCE(SUM(CASE WHEN kind = 'earning' THEN amount ELSE 0 END), 0),
			COUNT(upi) > 0
		FROM wallet_transactions WHERE user_id = $1
	`, userID).Scan(&summary.Balance, &summary.Earnings, &summary.UPILinked)

	return summary, err
}

package postgres

import (
	"context"
	"time"

	"github.com/mknows/bootcamp-api/internal/core/domain"
)

type OTPRepository struct {
	db DBTX
}

func NewOTPRepository(db DBTX) *OTPRepository {
	return &OTPRepository{db: db}
}

func (r *OTPRepository) Create(ctx context.Context, otp *domain.OTP) (*domain.OTP, error) {
	query := `INSERT INTO otps (uuid, user_id, key, type, status, expired_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		RETURNING id`

	err := r.db.QueryRowContext(ctx, query,
		otp.UUID, otp.UserID, otp.Key, string(otp.Purpose), string(otp.Status), otp.ExpiredAt, otp.CreatedAt,
	).Scan(&otp.ID)
	if err != nil {
		return nil, mapError(err)
	}
	return otp, nil
}

// Redeem picks and transitions the code in one statement. The row lock taken
// by the sub-select makes concurrent redeemers of the same code see it at most
// once as AVAILABLE.
func (r *OTPRepository) Redeem(ctx context.Context, userID int64, key string, purpose domain.OTPPurpose, now time.Time) (*domain.OTP, error) {
	query := `UPDATE otps
		SET status = CASE WHEN expired_at < $4 THEN 'EXPIRED' ELSE 'USED' END,
		    updated_at = $4
		WHERE id = (
			SELECT id FROM otps
			WHERE user_id = $1 AND key = $2 AND type = $3 AND status = 'AVAILABLE' AND deleted_at IS NULL
			ORDER BY created_at DESC
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		) AND status = 'AVAILABLE'
		RETURNING id, uuid, user_id, key, type, status, expired_at, created_at`

	otp := &domain.OTP{}
	var otpType, status string
	err := r.db.QueryRowContext(ctx, query, userID, key, string(purpose), now).Scan(
		&otp.ID, &otp.UUID, &otp.UserID, &otp.Key, &otpType, &status, &otp.ExpiredAt, &otp.CreatedAt,
	)
	if err != nil {
		return nil, notFound(err, domain.ErrNotFound)
	}
	otp.Purpose = domain.OTPPurpose(otpType)
	otp.Status = domain.OTPStatus(status)
	return otp, nil
}

func (r *OTPRepository) ExpireAvailable(ctx context.Context, userID int64, purpose domain.OTPPurpose, at time.Time) (int64, error) {
	query := `UPDATE otps
		SET status = 'EXPIRED', updated_at = $3
		WHERE user_id = $1 AND type = $2 AND status = 'AVAILABLE'`

	res, err := r.db.ExecContext(ctx, query, userID, string(purpose), at)
	if err != nil {
		return 0, mapError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, mapError(err)
	}
	return n, nil
}

package codes

import (
	"github.com/go-kratos/kratos/v2/errors"

	"github.com/yola1107/ludo/internal/biz"
	"github.com/yola1107/ludo/internal/biz/table"
	"github.com/yola1107/ludo/internal/model"
)

// API error reasons.
const (
	ReasonGameNotFound    = "GAME_NOT_FOUND"
	ReasonWrongPhase      = "WRONG_PHASE"
	ReasonGameOver        = "GAME_OVER"
	ReasonNotYourTurn     = "NOT_YOUR_TURN"
	ReasonSeatNotHuman    = "SEAT_NOT_HUMAN"
	ReasonUnknownSeat     = "UNKNOWN_SEAT"
	ReasonInvalidDie      = "INVALID_DIE"
	ReasonFixedDice       = "FIXED_DICE_DISABLED"
	ReasonNotMovable      = "NOT_MOVABLE"
	ReasonInvalidArgument = "INVALID_ARGUMENT"
	ReasonTableClosed     = "TABLE_CLOSED"
	ReasonTooManyTables   = "TOO_MANY_TABLES"
	ReasonRateLimited     = "RATE_LIMITED"
	ReasonInternal        = "INTERNAL"
)

var (
	ErrGameNotFound    = errors.NotFound(ReasonGameNotFound, "game not found")
	ErrWrongPhase      = errors.Conflict(ReasonWrongPhase, "command not allowed in current phase")
	ErrGameOver        = errors.Conflict(ReasonGameOver, "game is over")
	ErrNotYourTurn     = errors.Conflict(ReasonNotYourTurn, "not your turn")
	ErrSeatNotHuman    = errors.Conflict(ReasonSeatNotHuman, "seat is played by the ai")
	ErrUnknownSeat     = errors.BadRequest(ReasonUnknownSeat, "color not seated")
	ErrInvalidDie      = errors.BadRequest(ReasonInvalidDie, "invalid die")
	ErrFixedDice       = errors.Forbidden(ReasonFixedDice, "client supplied dice are disabled")
	ErrNotMovable      = errors.BadRequest(ReasonNotMovable, "token cannot move")
	ErrInvalidArgument = errors.BadRequest(ReasonInvalidArgument, "invalid argument")
	ErrTableClosed     = errors.New(410, ReasonTableClosed, "table closed")
	ErrTooManyTables   = errors.ServiceUnavailable(ReasonTooManyTables, "table limit reached")
	ErrRateLimited     = errors.New(429, ReasonRateLimited, "too many commands")
	ErrInternal        = errors.InternalServer(ReasonInternal, "internal error")
)

// 业务错误 -> API错误, first match wins.
var mapping = []struct {
	target error
	api    *errors.Error
}{
	{biz.ErrGameNotFound, ErrGameNotFound},
	{biz.ErrInvalidArgument, ErrInvalidArgument},
	{model.ErrGameOver, ErrGameOver},
	{model.ErrWrongPhase, ErrWrongPhase},
	{model.ErrInvalidDie, ErrInvalidDie},
	{model.ErrNotMovable, ErrNotMovable},
	{model.ErrInvalidToken, ErrNotMovable},
	{model.ErrInvalidSeating, ErrInvalidArgument},
	{model.ErrUnknownCommand, ErrInvalidArgument},
	{table.ErrNotYourTurn, ErrNotYourTurn},
	{table.ErrSeatNotHuman, ErrSeatNotHuman},
	{table.ErrUnknownSeat, ErrUnknownSeat},
	{table.ErrFixedDice, ErrFixedDice},
	{table.ErrTableClosed, ErrTableClosed},
	{table.ErrTooManyTables, ErrTooManyTables},
}

// FromError converts a domain error into a kratos error carrying the HTTP
// code and reason. Kratos errors pass through untouched.
func FromError(err error) error {
	if err == nil {
		return nil
	}
	var se *errors.Error
	if errors.As(err, &se) {
		return se
	}
	for _, m := range mapping {
		if errors.Is(err, m.target) {
			return errors.New(int(m.api.Code), m.api.Reason, err.Error()).WithCause(err)
		}
	}
	return ErrInternal.WithCause(err)
}

// InvalidArgument builds a 400 with a custom message.
func InvalidArgument(format string, args ...any) error {
	return errors.Newf(int(ErrInvalidArgument.Code), ReasonInvalidArgument, format, args...)
}

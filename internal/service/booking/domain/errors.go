package domain

import "github.com/pkg/errors"

// 领域哨兵错误。接口层用 errors.Is 做状态码映射，
// 面向用户的文案保持首字母大写的完整句子。
var (
	ErrBookingNotFound = errors.New("Booking not found")
	ErrWrongCode       = errors.New("Wrong confirmation code")
	ErrNotConfirmed    = errors.New("Booking is not confirmed")
	ErrAlreadyPaid     = errors.New("Booking is already paid")

	ErrPastStart          = errors.New("Booking cannot start in the past")
	ErrTooFarAhead        = errors.New("Booking is too far in the future")
	ErrNonPositiveHours   = errors.New("Booking must last at least one hour")
	ErrOutsideWorkWindow  = errors.New("Booking is outside of working hours")
	ErrSlotTaken          = errors.New("This time slot is already booked")
	ErrActiveBookingExist = errors.New("You already have an active booking")
	ErrItemNotAvailable   = errors.New("Item is not available in this bathhouse")
)

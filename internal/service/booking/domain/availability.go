package domain

import (
	"time"

	catalog "banya/internal/service/catalog/domain"
	"banya/internal/service/pricing"
)

// SlotRequest 描述一次待校验的占位请求。
type SlotRequest struct {
	Bathhouse *catalog.Bathhouse
	RoomID    uint
	Phone     string
	Start     time.Time
	Hours     int
}

// CheckAvailability 按固定顺序执行全部可订性规则，返回第一个失败项：
//  1. 起始时刻不能早于 now；
//  2. 不能超出预订视野（maxDaysAhead 天）；
//  3. 时长必须为正；
//  4. [Start, End) 必须完整落在场馆的营业窗口内（支持跨午夜窗口）；
//  5. 与同房间既有占用按半开区间判重叠；
//  6. 同一手机号同时只允许一个未结束的活跃预订。
//
// existing 传入同房间的未来占用；activeByPhone 传入该手机号的活跃预订。
// 两者均由仓储层预查，保持本函数为纯函数便于测试。
func CheckAvailability(now time.Time, maxDaysAhead int, req SlotRequest, existing []Booking, activeByPhone []Booking) error {
	if req.Start.Before(now) {
		return ErrPastStart
	}
	if req.Start.After(now.AddDate(0, 0, maxDaysAhead)) {
		return ErrTooFarAhead
	}
	if req.Hours < 1 {
		return ErrNonPositiveHours
	}

	// 换算成门店本地时间后校验整个占用区间。营业窗口按当日分钟数表达，
	// 跨午夜窗口由 FitsWorkWindow 自行处理。
	end := req.Start.Add(time.Duration(req.Hours) * time.Hour)
	localStart := req.Start.In(req.Bathhouse.Location)
	startOfDay := pricing.TimeOfDay(localStart.Hour()*60 + localStart.Minute())
	if !req.Bathhouse.FitsWorkWindow(startOfDay, req.Hours) {
		return ErrOutsideWorkWindow
	}

	// 半开区间重叠：a.Start < b.End && b.Start < a.End
	for i := range existing {
		b := &existing[i]
		if req.Start.Before(b.End()) && b.Start.Before(end) {
			return ErrSlotTaken
		}
	}

	// 未结束即视为活跃：结束时刻严格晚于 now 的预订挡住新单
	for i := range activeByPhone {
		b := &activeByPhone[i]
		if b.End().After(now) {
			return ErrActiveBookingExist
		}
	}
	return nil
}

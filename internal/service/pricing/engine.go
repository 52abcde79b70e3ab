// internal/service/pricing/engine.go
package pricing

import (
	"math"
	"time"
)

// PromotionType 标识应用到价格上的促销类型。
type PromotionType string

const (
	PromoHappyHours PromotionType = "HAPPY_HOURS"
	PromoBonusHour  PromotionType = "BONUS_HOUR"
	PromoBirthday   PromotionType = "BIRTHDAY"
)

// LineItem 是预订附加的一条加购项（按目录单价×数量计费）。
type LineItem struct {
	ItemID    uint
	Name      string
	UnitPrice float64
	Quantity  int
}

// AppliedPromotion 记录一条已生效的促销，仅用于展示，不落账。
type AppliedPromotion struct {
	Type         PromotionType `json:"type"`
	Percent      float64       `json:"percent,omitempty"`
	Discount     float64       `json:"discount,omitempty"`
	HoursAwarded int           `json:"hours_awarded,omitempty"`
}

// Input 是一次报价所需的全部输入。
// 价格计算不读取任何全局状态：时钟、时区、配置全部由调用方传入。
type Input struct {
	RatePerHour float64
	Hours       int
	Items       []LineItem
	Birthday    bool
	Start       time.Time
	Location    *time.Location // 门店所在时区
	Config      PromoConfig
}

// Quote 是报价结果。Total 为最终应收金额（两位小数）。
type Quote struct {
	Total           float64
	ChargeableHours int
	Applied         []AppliedPromotion
}

// Calculate 计算一笔预订的最终价格。
//
// 促销互斥规则：
//   - Happy Hours 独占：命中后不再叠加任何其他百分比折扣；
//   - Bonus Hour 只在 Happy Hours 未命中时生效，减少计费小时数；
//   - 生日折扣可与 Bonus Hour 叠加，但永远不与 Happy Hours 叠加。
//
// 每一步折扣单独做四舍五入（half-up 到两位小数），而不是最后一次性取整，
// 顺序不同会产生分位上的差异，这里的顺序即对账口径。
func Calculate(in Input) Quote {
	loc := in.Location
	if loc == nil {
		loc = time.UTC
	}
	localStart := in.Start.In(loc)

	happy := happyHoursApply(in.Config, localStart, in.Hours)

	chargeable := in.Hours
	var applied []AppliedPromotion

	if !happy && bonusHourApplies(in.Config, localStart, in.Hours) {
		award := in.Config.BonusHourAward
		chargeable = in.Hours - award
		if chargeable < 0 {
			chargeable = 0
		}
		applied = append(applied, AppliedPromotion{
			Type:         PromoBonusHour,
			HoursAwarded: award,
		})
	}

	subtotal := in.RatePerHour * float64(chargeable)
	for _, item := range in.Items {
		subtotal += item.UnitPrice * float64(item.Quantity)
	}
	total := Round2(subtotal)

	if happy {
		discount := Round2(total * in.Config.HappyHoursPercent / 100)
		total = Round2(total - discount)
		applied = append(applied, AppliedPromotion{
			Type:     PromoHappyHours,
			Percent:  in.Config.HappyHoursPercent,
			Discount: discount,
		})
	} else if in.Birthday && in.Config.birthdayOn() {
		discount := Round2(total * in.Config.BirthdayPercent / 100)
		total = Round2(total - discount)
		applied = append(applied, AppliedPromotion{
			Type:     PromoBirthday,
			Percent:  in.Config.BirthdayPercent,
			Discount: discount,
		})
	}

	// 折扣都是总额的百分比，结构上不会为负；这里只是兜底
	if total < 0 {
		total = 0
	}

	return Quote{
		Total:           total,
		ChargeableHours: chargeable,
		Applied:         applied,
	}
}

// happyHoursApply 判断 Happy Hours 是否命中：
// 整段预订区间 [start, start+hours) 必须落在门店本地时间的同一个日历日内、
// 完整处于配置的时段窗口中，且起始日的星期匹配。
func happyHoursApply(cfg PromoConfig, localStart time.Time, hours int) bool {
	if !cfg.happyHoursOn() {
		return false
	}
	if !cfg.HappyHoursDays.Contains(localStart.Weekday()) {
		return false
	}

	localEnd := localStart.Add(time.Duration(hours) * time.Hour)

	// 区间为半开 [start, end)：恰好在午夜结束的预订仍算当天
	endMinutes := MinutesOfDay(localEnd)
	sameDay := localStart.Year() == localEnd.Year() && localStart.YearDay() == localEnd.YearDay()
	if !sameDay {
		next := localStart.AddDate(0, 0, 1)
		endsAtMidnight := endMinutes == 0 &&
			localEnd.Year() == next.Year() && localEnd.YearDay() == next.YearDay()
		if !endsAtMidnight {
			return false
		}
		endMinutes = 24 * 60
	}

	startMinutes := MinutesOfDay(localStart)
	return startMinutes >= cfg.HappyHoursStart && endMinutes <= cfg.HappyHoursEnd
}

func bonusHourApplies(cfg PromoConfig, localStart time.Time, hours int) bool {
	if !cfg.bonusHourOn() {
		return false
	}
	if hours < cfg.BonusHourMinHours {
		return false
	}
	return cfg.BonusHourDays.Contains(localStart.Weekday())
}

// Round2 将金额四舍五入（half-up）到两位小数。
// 金额始终非负，math.Round 的 half-away-from-zero 在此等价于 half-up。
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

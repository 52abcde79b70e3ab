// internal/service/pricing/config.go
package pricing

import (
	"fmt"
	"time"
)

// TimeOfDay 表示一天内的某个时刻，以午夜起的分钟数存储。
// 用于营业时间窗口和 Happy Hours 窗口的比较，避免直接比较 time.Time。
type TimeOfDay int

// ParseTimeOfDay 解析 "15:04" 格式的时刻。
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	return TimeOfDay(t.Hour()*60 + t.Minute()), nil
}

// MinutesOfDay 返回 t 在其所在时区的当日分钟数。
func MinutesOfDay(t time.Time) TimeOfDay {
	return TimeOfDay(t.Hour()*60 + t.Minute())
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// WeekdaySet 是一个按位存储的星期集合。
// 空集合表示"无限制"——促销配置里不填写适用日即对所有日生效。
type WeekdaySet uint8

// NewWeekdaySet 从星期列表构建集合。
func NewWeekdaySet(days ...time.Weekday) WeekdaySet {
	var s WeekdaySet
	for _, d := range days {
		s |= 1 << uint(d)
	}
	return s
}

// Contains 判断 d 是否在集合内。空集合视为不设限制。
func (s WeekdaySet) Contains(d time.Weekday) bool {
	if s == 0 {
		return true
	}
	return s&(1<<uint(d)) != 0
}

// Weekdays 返回集合内的所有星期，用于序列化。
func (s WeekdaySet) Weekdays() []time.Weekday {
	if s == 0 {
		return nil
	}
	var out []time.Weekday
	for d := time.Sunday; d <= time.Saturday; d++ {
		if s&(1<<uint(d)) != 0 {
			out = append(out, d)
		}
	}
	return out
}

// PromoConfig 是一家门店的促销配置。
// 所有字段都有明确的零值语义：百分比为 0 等价于关闭对应促销，
// 不存在"缺字段"的情况——配置在加载时一次性校验，计算路径不再做防御。
type PromoConfig struct {
	HappyHoursEnabled bool
	HappyHoursPercent float64
	HappyHoursStart   TimeOfDay
	HappyHoursEnd     TimeOfDay
	HappyHoursDays    WeekdaySet

	BonusHourEnabled  bool
	BonusHourMinHours int
	BonusHourAward    int
	BonusHourDays     WeekdaySet

	BirthdayEnabled bool
	BirthdayPercent float64
}

// Validate 在配置加载时调用一次。
// Happy Hours 的窗口不允许跨午夜：整段预订必须落在同一天的窗口内，
// 跨午夜的窗口在该语义下没有意义。
func (c PromoConfig) Validate() error {
	if c.HappyHoursPercent < 0 || c.HappyHoursPercent > 100 {
		return fmt.Errorf("happy hours percent %.2f out of range [0,100]", c.HappyHoursPercent)
	}
	if c.BirthdayPercent < 0 || c.BirthdayPercent > 100 {
		return fmt.Errorf("birthday percent %.2f out of range [0,100]", c.BirthdayPercent)
	}
	if c.HappyHoursEnabled && c.HappyHoursStart >= c.HappyHoursEnd {
		return fmt.Errorf("happy hours window %s-%s is empty or crosses midnight",
			c.HappyHoursStart, c.HappyHoursEnd)
	}
	if c.BonusHourMinHours < 0 || c.BonusHourAward < 0 {
		return fmt.Errorf("bonus hour config must be non-negative")
	}
	return nil
}

// happyHoursOn 百分比为 0 时视为功能关闭。
func (c PromoConfig) happyHoursOn() bool {
	return c.HappyHoursEnabled && c.HappyHoursPercent > 0
}

func (c PromoConfig) bonusHourOn() bool {
	return c.BonusHourEnabled && c.BonusHourAward > 0
}

func (c PromoConfig) birthdayOn() bool {
	return c.BirthdayEnabled && c.BirthdayPercent > 0
}

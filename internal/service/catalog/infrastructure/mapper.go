// internal/service/catalog/infrastructure/mapper.go
package infrastructure

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	bonusdomain "banya/internal/service/bonus/domain"
	"banya/internal/service/catalog/domain"
	"banya/internal/service/pricing"
)

// ToDomainBathhouse 将数据库模型转换为领域模型。
// 促销配置在这里组装并校验一次，后续计算路径不再做防御性检查。
func ToDomainBathhouse(m *BathhouseModel) (*domain.Bathhouse, error) {
	loc := time.UTC
	if m.Timezone != "" {
		l, err := time.LoadLocation(m.Timezone)
		if err != nil {
			return nil, fmt.Errorf("bathhouse %d has invalid timezone %q: %w", m.ID, m.Timezone, err)
		}
		loc = l
	}

	start, err := parseOptionalTime(m.StartOfWork)
	if err != nil {
		return nil, fmt.Errorf("bathhouse %d start_of_work: %w", m.ID, err)
	}
	end, err := parseOptionalTime(m.EndOfWork)
	if err != nil {
		return nil, fmt.Errorf("bathhouse %d end_of_work: %w", m.ID, err)
	}

	promo, err := buildPromoConfig(m)
	if err != nil {
		return nil, fmt.Errorf("bathhouse %d promo config: %w", m.ID, err)
	}

	return &domain.Bathhouse{
		ID:          m.ID,
		Name:        m.Name,
		Address:     m.Address,
		Phone:       m.Phone,
		Active:      m.Active,
		Is24Hours:   m.Is24Hours,
		StartOfWork: start,
		EndOfWork:   end,
		Location:    loc,
		Promo:       promo,
		Accrue: bonusdomain.AccrualPolicy{
			Enabled:   m.AccrualEnabled,
			Threshold: m.AccrualThreshold,
			BelowPct:  m.AccrualBelowPct,
			AbovePct:  m.AccrualAbovePct,
			FlatPct:   m.AccrualFlatPct,
		},
	}, nil
}

func buildPromoConfig(m *BathhouseModel) (pricing.PromoConfig, error) {
	var cfg pricing.PromoConfig

	cfg.HappyHoursEnabled = m.HappyHoursEnabled
	cfg.HappyHoursPercent = m.HappyHoursPercent
	if m.HappyHoursEnabled {
		start, err := pricing.ParseTimeOfDay(m.HappyHoursStart)
		if err != nil {
			return cfg, err
		}
		end, err := pricing.ParseTimeOfDay(m.HappyHoursEnd)
		if err != nil {
			return cfg, err
		}
		cfg.HappyHoursStart = start
		cfg.HappyHoursEnd = end
	}
	days, err := parseWeekdays(m.HappyHoursWeekdays)
	if err != nil {
		return cfg, err
	}
	cfg.HappyHoursDays = days

	cfg.BonusHourEnabled = m.BonusHourEnabled
	cfg.BonusHourMinHours = m.BonusHourMinHours
	cfg.BonusHourAward = m.BonusHourAward
	days, err = parseWeekdays(m.BonusHourWeekdays)
	if err != nil {
		return cfg, err
	}
	cfg.BonusHourDays = days

	cfg.BirthdayEnabled = m.BirthdayEnabled
	cfg.BirthdayPercent = m.BirthdayPercent

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// parseWeekdays 解析 "0,5,6" 形式的星期列表（0=Sunday）。空串 → 空集。
func parseWeekdays(s string) (pricing.WeekdaySet, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	var days []time.Weekday
	for _, part := range strings.Split(s, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n < 0 || n > 6 {
			return 0, fmt.Errorf("invalid weekday %q", part)
		}
		days = append(days, time.Weekday(n))
	}
	return pricing.NewWeekdaySet(days...), nil
}

func parseOptionalTime(s string) (pricing.TimeOfDay, error) {
	if s == "" {
		return 0, nil
	}
	return pricing.ParseTimeOfDay(s)
}

func ToDomainRoom(m *RoomModel) *domain.Room {
	return &domain.Room{
		ID:           m.ID,
		BathhouseID:  m.BathhouseID,
		RoomNumber:   m.RoomNumber,
		Capacity:     m.Capacity,
		PricePerHour: m.PricePerHour,
		IsAvailable:  m.IsAvailable,
	}
}

func ToDomainItem(m *BathhouseItemModel) domain.Item {
	return domain.Item{
		ID:          m.ID,
		BathhouseID: m.BathhouseID,
		Name:        m.Name,
		Price:       m.Price,
		IsAvailable: m.IsAvailable,
	}
}

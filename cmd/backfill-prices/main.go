// cmd/backfill-prices/main.go
//
// 一次性补数工具：为 final_price 为 NULL 的历史预订按当前目录配置
// 计算并回填价格。新创建的预订都会在创建时锁价，这里只服务存量数据。
package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"banya/internal/pkg/bootstrap"
	"banya/internal/pkg/db"
	"banya/internal/service/booking/infrastructure"
	cataloginfra "banya/internal/service/catalog/infrastructure"
	"banya/internal/service/pricing"
)

func main() {
	dryRun := flag.Bool("dry-run", false, "print what would change without writing")
	flag.Parse()

	bootstrap.Init()
	cfg := bootstrap.GetCurrentConfig()

	gdb, err := db.Open(cfg.Infra.MySQL.DSN)
	if err != nil {
		log.Fatalf("failed to connect mysql: %v", err)
	}
	catalogRepo := cataloginfra.NewGormCatalogRepository(gdb)
	ctx := context.Background()

	var models []infrastructure.BookingModel
	if err := gdb.Preload("Items").Where("final_price IS NULL").Find(&models).Error; err != nil {
		log.Fatalf("failed to list bookings without price: %v", err)
	}
	log.Printf("Found %d bookings without a locked price.", len(models))

	updated := 0
	for i := range models {
		booking := infrastructure.ToDomainBooking(&models[i])

		room, bathhouse, err := catalogRepo.FindRoom(ctx, booking.RoomID)
		if err != nil {
			log.Printf("SKIP %s: room %d lookup failed: %v", booking.ID, booking.RoomID, err)
			continue
		}

		var lines []pricing.LineItem
		for _, it := range booking.Items {
			lines = append(lines, pricing.LineItem{
				ItemID:    it.ItemID,
				Name:      it.Name,
				UnitPrice: it.Price,
				Quantity:  it.Quantity,
			})
		}

		quote := pricing.Calculate(pricing.Input{
			RatePerHour: room.PricePerHour,
			Hours:       booking.Hours,
			Items:       lines,
			Birthday:    booking.Birthday,
			Start:       booking.Start,
			Location:    bathhouse.Location,
			Config:      bathhouse.Promo,
		})

		if *dryRun {
			fmt.Printf("WOULD SET %s -> %.2f\n", booking.ID, quote.Total)
			updated++
			continue
		}

		err = gdb.Model(&infrastructure.BookingModel{}).
			Where("id = ? AND final_price IS NULL", booking.ID).
			Update("final_price", quote.Total).Error
		if err != nil {
			log.Printf("SKIP %s: update failed: %v", booking.ID, err)
			continue
		}
		log.Printf("SET %s -> %.2f", booking.ID, quote.Total)
		updated++
	}

	if *dryRun {
		log.Printf("Dry run complete: %d of %d bookings would be updated.", updated, len(models))
		return
	}
	log.Printf("Backfill complete: %d of %d bookings updated.", updated, len(models))
}

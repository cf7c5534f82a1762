package migrate

import (
	"context"

	"pizzeria-service/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type MigrateOptions struct {
	CreateExtensions       bool // pgcrypto, pg_trgm
	CreateChecks           bool // CHECK-constraint для перечислений и количеств
	CreateIndexes          bool // индексы и UNIQUE
	CreateFKsViaSQL        bool // FK через SQL (поверх GORM-constraint)
	CreateUpdatedAtTrigger bool // триггер обновления updated_at
}

func DefaultMigrateOptions() MigrateOptions {
	return MigrateOptions{
		CreateExtensions:       true,
		CreateChecks:           true,
		CreateIndexes:          true,
		CreateFKsViaSQL:        true,
		CreateUpdatedAtTrigger: true,
	}
}

type step struct {
	name string
	sql  string
}

func exec(ctx context.Context, db *gorm.DB, log *zap.Logger, steps []step) error {
	for _, s := range steps {
		if err := db.WithContext(ctx).Exec(s.sql).Error; err != nil {
			log.Error("Ошибка шага миграции", zap.String("step", s.name), zap.Error(err))
			return err
		}
	}
	return nil
}

func MigratePizzeriaDB(ctx context.Context, db *gorm.DB, log *zap.Logger, opt MigrateOptions) error {
	log.Info("Начало миграции базы данных пиццерии")

	if opt.CreateExtensions {
		log.Info("Создание расширений PostgreSQL")
		if err := exec(ctx, db, log, []step{
			{"pgcrypto", `CREATE EXTENSION IF NOT EXISTS pgcrypto`},
			{"pg_trgm", `CREATE EXTENSION IF NOT EXISTS pg_trgm`},
		}); err != nil {
			return err
		}
		log.Info("Расширения PostgreSQL успешно созданы")
	}

	log.Info("Создание таблиц")
	if err := db.WithContext(ctx).AutoMigrate(
		&models.Customer{},
		&models.Ingredient{},
		&models.Product{},
		&models.Order{},
		&models.OrderLine{},
	); err != nil {
		log.Error("Не удалось создать таблицы", zap.Error(err))
		return err
	}
	log.Info("Таблицы успешно созданы")

	// Не опционально: без него два параллельных addToCart могут завести две корзины.
	if err := exec(ctx, db, log, []step{
		{"ux_orders_customer_pending", `
CREATE UNIQUE INDEX IF NOT EXISTS ux_orders_customer_pending
ON orders (customer_id) WHERE state = 'PENDING';`},
	}); err != nil {
		return err
	}

	if opt.CreateUpdatedAtTrigger {
		log.Info("Создание триггеров updated_at")
		if err := exec(ctx, db, log, []step{
			{"set_updated_at", `
CREATE OR REPLACE FUNCTION set_updated_at() RETURNS trigger AS $$
BEGIN NEW.updated_at = now(); RETURN NEW; END; $$ LANGUAGE plpgsql;`},
			{"trg_orders_updated", `
DROP TRIGGER IF EXISTS trg_orders_updated ON orders;
CREATE TRIGGER trg_orders_updated BEFORE UPDATE ON orders
FOR EACH ROW EXECUTE FUNCTION set_updated_at();`},
			{"trg_customers_updated", `
DROP TRIGGER IF EXISTS trg_customers_updated ON customers;
CREATE TRIGGER trg_customers_updated BEFORE UPDATE ON customers
FOR EACH ROW EXECUTE FUNCTION set_updated_at();`},
			{"trg_products_updated", `
DROP TRIGGER IF EXISTS trg_products_updated ON products;
CREATE TRIGGER trg_products_updated BEFORE UPDATE ON products
FOR EACH ROW EXECUTE FUNCTION set_updated_at();`},
		}); err != nil {
			return err
		}
		log.Info("Триггеры updated_at успешно созданы")
	}

	if opt.CreateChecks {
		log.Info("Создание CHECK-ограничений")
		if err := exec(ctx, db, log, []step{
			{"chk_orders_state_allowed", `
ALTER TABLE orders DROP CONSTRAINT IF EXISTS chk_orders_state_allowed;
ALTER TABLE orders ADD CONSTRAINT chk_orders_state_allowed
  CHECK (state IN ('PENDING','FINISHED','DELIVERED','CANCELED'));`},
			{"chk_orders_payment_method_allowed", `
ALTER TABLE orders DROP CONSTRAINT IF EXISTS chk_orders_payment_method_allowed;
ALTER TABLE orders ADD CONSTRAINT chk_orders_payment_method_allowed
  CHECK (payment_method IN ('CARD','CASH','UNPAID'));`},
			{"chk_order_lines_amount_gt_zero", `
ALTER TABLE order_lines DROP CONSTRAINT IF EXISTS chk_order_lines_amount_gt_zero;
ALTER TABLE order_lines ADD CONSTRAINT chk_order_lines_amount_gt_zero
  CHECK (amount > 0);`},
			{"chk_products_price_non_negative", `
ALTER TABLE products DROP CONSTRAINT IF EXISTS chk_products_price_non_negative;
ALTER TABLE products ADD CONSTRAINT chk_products_price_non_negative
  CHECK (price >= 0);`},
			// DRINK всегда с размером, остальные без
			{"chk_products_kind_size", `
ALTER TABLE products DROP CONSTRAINT IF EXISTS chk_products_kind_size;
ALTER TABLE products ADD CONSTRAINT chk_products_kind_size
  CHECK (
    (kind IN ('PIZZA','PASTA') AND size IS NULL) OR
    (kind = 'DRINK' AND size IN ('SMALL','MEDIUM','BIG'))
  );`},
		}); err != nil {
			return err
		}
		log.Info("CHECK-ограничения успешно созданы")
	}

	if opt.CreateIndexes {
		log.Info("Создание индексов")
		if err := exec(ctx, db, log, []step{
			{"ux_customers_email_lower", `
CREATE UNIQUE INDEX IF NOT EXISTS ux_customers_email_lower ON customers (lower(email));`},
			{"ix_orders_customer_date", `
CREATE INDEX IF NOT EXISTS ix_orders_customer_date ON orders (customer_id, order_date DESC);`},
			{"ix_orders_state_updated", `
CREATE INDEX IF NOT EXISTS ix_orders_state_updated ON orders (state, updated_at);`},
			{"ix_order_lines_order_position", `
CREATE INDEX IF NOT EXISTS ix_order_lines_order_position ON order_lines (order_id, position);`},
		}); err != nil {
			return err
		}
		if opt.CreateExtensions {
			if err := exec(ctx, db, log, []step{
				{"ix_products_name_trgm", `
CREATE INDEX IF NOT EXISTS ix_products_name_trgm ON products USING GIN (name gin_trgm_ops);`},
			}); err != nil {
				return err
			}
		}
		log.Info("Индексы успешно созданы")
	}

	if opt.CreateFKsViaSQL {
		log.Info("Создание внешних ключей")
		if err := exec(ctx, db, log, []step{
			{"fk_orders_lines", `
ALTER TABLE order_lines
  DROP CONSTRAINT IF EXISTS fk_orders_lines,
  ADD CONSTRAINT fk_orders_lines
    FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE;`},
			{"fk_customers_orders", `
ALTER TABLE orders
  DROP CONSTRAINT IF EXISTS fk_customers_orders,
  ADD CONSTRAINT fk_customers_orders
    FOREIGN KEY (customer_id) REFERENCES customers(id) ON DELETE CASCADE;`},
			// товар из истории заказов удалить нельзя
			{"fk_order_lines_product", `
ALTER TABLE order_lines
  DROP CONSTRAINT IF EXISTS fk_order_lines_product,
  ADD CONSTRAINT fk_order_lines_product
    FOREIGN KEY (product_id) REFERENCES products(id) ON DELETE RESTRICT;`},
		}); err != nil {
			return err
		}
		log.Info("Внешние ключи успешно созданы")
	}

	log.Info("Миграция базы данных пиццерии успешно завершена")
	return nil
}

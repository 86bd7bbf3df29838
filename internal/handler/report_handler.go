package handler

import (
	"encoding/csv"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"

	"github.com/yourusername/cabinet-api/internal/service"
)

// ReportHandler отдает административные отчёты в CSV/XLSX
type ReportHandler struct {
	reportService *service.ReportService
}

// NewReportHandler создает обработчик отчётов
func NewReportHandler(reportService *service.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// ResetLog экспортирует журнал восстановления пароля.
// ?format=xlsx даёт Excel, по умолчанию CSV.
func (h *ReportHandler) ResetLog(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "1000"))

	rows, err := h.reportService.ResetLog(limit)
	if err != nil {
		log.Printf("[ReportHandler] Ошибка сбора журнала восстановления: %v", err)
		jsonError(c, "Внутренняя ошибка сервера.", http.StatusInternalServerError)
		return
	}

	filename := fmt.Sprintf("password_reset_log_%s", time.Now().Format("2006-01-02"))
	headers := []string{"ID", "ID пользователя", "Пользователь", "Email", "Код", "Истекает", "Использован", "Создан"}

	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		used := "Нет"
		if r.IsUsed {
			used = "Да"
		}
		records = append(records, []string{
			strconv.FormatUint(uint64(r.ID), 10),
			strconv.FormatUint(uint64(r.UserID), 10),
			sanitizeForExcel(r.Username),
			sanitizeForExcel(r.Email),
			r.Code,
			r.ExpiresAt,
			used,
			r.CreatedAt,
		})
	}

	h.export(c, filename, "Восстановление пароля", headers, records)
}

// Sessions экспортирует историю пользовательских сессий
func (h *ReportHandler) Sessions(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "1000"))

	rows, err := h.reportService.Sessions(limit)
	if err != nil {
		log.Printf("[ReportHandler] Ошибка сбора истории сессий: %v", err)
		jsonError(c, "Внутренняя ошибка сервера.", http.StatusInternalServerError)
		return
	}

	filename := fmt.Sprintf("user_sessions_%s", time.Now().Format("2006-01-02"))
	headers := []string{"ID", "ID пользователя", "Пользователь", "Email", "Начало", "Окончание", "Длительность, сек", "Активна"}

	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		active := "Нет"
		if r.IsActive {
			active = "Да"
		}
		records = append(records, []string{
			strconv.FormatUint(uint64(r.ID), 10),
			strconv.FormatUint(uint64(r.UserID), 10),
			sanitizeForExcel(r.Username),
			sanitizeForExcel(r.Email),
			r.StartTime,
			r.EndTime,
			strconv.FormatInt(r.DurationSec, 10),
			active,
		})
	}

	h.export(c, filename, "Сессии", headers, records)
}

func (h *ReportHandler) export(c *gin.Context, filename, sheetName string, headers []string, records [][]string) {
	switch c.DefaultQuery("format", "csv") {
	case "xlsx":
		h.exportXLSX(c, filename, sheetName, headers, records)
	default:
		h.exportCSV(c, filename, headers, records)
	}
}

// exportCSV пишет отчёт в CSV с правильным экранированием спецсимволов
func (h *ReportHandler) exportCSV(c *gin.Context, filename string, headers []string, records [][]string) {
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.csv\"", filename))

	// BOM для корректного отображения UTF-8 в Excel
	c.Writer.Write([]byte{0xEF, 0xBB, 0xBF})

	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	writer.Write(headers)
	for _, record := range records {
		writer.Write(record)
	}
}

// exportXLSX пишет отчёт в Excel с использованием StreamWriter
func (h *ReportHandler) exportXLSX(c *gin.Context, filename, sheetName string, headers []string, records [][]string) {
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.xlsx\"", filename))

	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", sheetName)

	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		log.Printf("[ReportHandler] Ошибка создания StreamWriter: %v", err)
		jsonError(c, "Не удалось сформировать файл отчёта.", http.StatusInternalServerError)
		return
	}

	headerRow := make([]interface{}, len(headers))
	for i, header := range headers {
		headerRow[i] = header
	}
	if err := sw.SetRow("A1", headerRow); err != nil {
		log.Printf("[ReportHandler] Ошибка записи заголовков: %v", err)
	}

	for i, record := range records {
		cell := fmt.Sprintf("A%d", i+2)
		row := make([]interface{}, len(record))
		for j, value := range record {
			row[j] = value
		}
		if err := sw.SetRow(cell, row); err != nil {
			log.Printf("[ReportHandler] Ошибка записи строки %d: %v", i+2, err)
		}
	}

	if err := sw.Flush(); err != nil {
		log.Printf("[ReportHandler] Ошибка при Flush: %v", err)
	}

	if err := f.Write(c.Writer); err != nil {
		log.Printf("[ReportHandler] Ошибка записи Excel в response: %v", err)
	}
}

// sanitizeForExcel экранирует данные для защиты от formula injection в Excel/CSV
func sanitizeForExcel(s string) string {
	if len(s) == 0 {
		return s
	}
	// Символы, начинающие формулу в Excel/LibreOffice: = + - @ \t \r
	if s[0] == '=' || s[0] == '+' || s[0] == '-' || s[0] == '@' || s[0] == '\t' || s[0] == '\r' {
		return "'" + s
	}
	return s
}

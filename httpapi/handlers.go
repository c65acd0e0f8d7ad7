package httpapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"begehung/begehung"
)

const previewRows = 5

type Handler struct {
	session *begehung.Session
	now     func() time.Time
}

func NewHandler(s *begehung.Session) *Handler {
	return &Handler{session: s, now: time.Now}
}

func (h *Handler) HealthCheck(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

func (h *Handler) ListVariants(c *gin.Context) {
	RespondOK(c, gin.H{"variants": h.session.Registry().ListVariants()})
}

func (h *Handler) GetVariant(c *gin.Context) {
	name := c.Param("name")
	items, err := h.session.Registry().GetItems(name)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	RespondOK(c, begehung.VariantTemplate{Name: name, Items: items})
}

type replaceTemplateRequest struct {
	Items []struct {
		Group   string `json:"item_group"`
		Text    string `json:"item_text"`
		Unit    string `json:"unit"`
		Default string `json:"default"`
	} `json:"items"`
}

// ReplaceVariant saves an edited template of an existing variant. Default
// statuses are validated here.
func (h *Handler) ReplaceVariant(c *gin.Context) {
	name := c.Param("name")
	if _, err := h.session.Registry().GetItems(name); err != nil {
		respondDomainError(c, err)
		return
	}
	var req replaceTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	items := make([]begehung.ChecklistItemTemplate, 0, len(req.Items))
	for i, it := range req.Items {
		st := begehung.StatusOpen
		if strings.TrimSpace(it.Default) != "" {
			var err error
			if st, err = begehung.ParseStatus(it.Default); err != nil {
				RespondError(c, http.StatusBadRequest, "invalid_status", fmt.Errorf("item %d: %w", i+1, err))
				return
			}
		}
		items = append(items, begehung.ChecklistItemTemplate{
			Group:         strings.TrimSpace(it.Group),
			Text:          strings.TrimSpace(it.Text),
			Unit:          strings.TrimSpace(it.Unit),
			DefaultStatus: st,
		})
	}
	if err := h.session.ReplaceTemplate(name, items); err != nil {
		respondDomainError(c, err)
		return
	}
	RespondOK(c, begehung.VariantTemplate{Name: name, Items: items})
}

func (h *Handler) DownloadTemplate(c *gin.Context) {
	name := c.Param("name")
	b, err := h.session.ExportTemplateCSV(name)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	attachment(c, begehung.TemplateFileName(name), begehung.CSVContentType, b)
}

type composeRequest struct {
	Variants []string `json:"variants"`
}

func (h *Handler) Compose(c *gin.Context) {
	var req composeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	rows, err := h.session.Compose(req.Variants)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	RespondOK(c, gin.H{"variant_combo": begehung.VariantCombo(req.Variants), "rows": rows})
}

type saveRequest struct {
	Date       string                  `json:"date"`
	Technician string                  `json:"technician"`
	Customer   begehung.Customer       `json:"customer"`
	Site       begehung.Site           `json:"site"`
	Variants   []string                `json:"variants"`
	Rows       []begehung.ChecklistRow `json:"rows"`
}

// SaveInspection records an edited checklist. An empty checklist saves nothing
// and answers 204.
func (h *Handler) SaveInspection(c *gin.Context) {
	var req saveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	date := h.now()
	if strings.TrimSpace(req.Date) != "" {
		d, ok := begehung.ParseDate(req.Date)
		if !ok {
			RespondError(c, http.StatusBadRequest, "invalid_date", fmt.Errorf("unparsable date %q", req.Date))
			return
		}
		date = d
	}
	res, err := h.session.SaveInspection(req.Rows, begehung.InspectionMeta{
		Date:       date,
		Technician: req.Technician,
		Customer:   req.Customer,
		Site:       req.Site,
		Variants:   req.Variants,
	})
	if err != nil {
		respondDomainError(c, err)
		return
	}
	if res.InspectionID == "" {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"inspection_id": res.InspectionID,
		"rows":          len(res.Records),
		"records":       recordMaps(res.Records),
	})
}

// DownloadInspection returns the CSV of a single inspection.
func (h *Handler) DownloadInspection(c *gin.Context) {
	id := c.Param("id")
	var recs []begehung.InspectionRecord
	for _, r := range h.session.Table().Records() {
		if r.InspectionID == id {
			recs = append(recs, r)
		}
	}
	if len(recs) == 0 {
		RespondError(c, http.StatusNotFound, "not_found", fmt.Errorf("inspection %q not found", id))
		return
	}
	b, err := begehung.ExportCSV(recs)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "export_failed", err)
		return
	}
	attachment(c, begehung.InspectionFileName(id), begehung.CSVContentType, b)
}

// Import accepts a CSV as multipart field "file" or, for any other content
// type, as the raw body. With
// dry_run=true the upload is parsed and previewed but not merged.
func (h *Handler) Import(c *gin.Context) {
	var body io.Reader = c.Request.Body
	if c.ContentType() == "multipart/form-data" {
		fh, err := c.FormFile("file")
		if err != nil {
			RespondError(c, http.StatusBadRequest, "invalid_upload", err)
			return
		}
		f, err := fh.Open()
		if err != nil {
			RespondError(c, http.StatusBadRequest, "invalid_upload", err)
			return
		}
		defer f.Close()
		body = f
	}
	res, err := h.session.ImportCSV(body)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	out := gin.H{
		"rows":     len(res.Records),
		"columns":  res.Header,
		"warnings": res.Warnings,
		"preview":  recordMaps(res.Preview(previewRows)),
	}
	if c.Query("dry_run") == "true" {
		RespondOK(c, out)
		return
	}
	merged, err := h.session.Merge(res.Records)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	out["merged"] = merged
	RespondOK(c, out)
}

func (h *Handler) ListInspections(c *gin.Context) {
	crit, err := criteriaFromQuery(c)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_filter", err)
		return
	}
	recs := h.session.Filter(crit)
	RespondOK(c, gin.H{"count": len(recs), "records": recordMaps(recs)})
}

func (h *Handler) ExportCSV(c *gin.Context) {
	crit, err := criteriaFromQuery(c)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_filter", err)
		return
	}
	b, err := h.session.ExportCSV(crit)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "export_failed", err)
		return
	}
	attachment(c, begehung.FilteredCSVName, begehung.CSVContentType, b)
}

func (h *Handler) ExportXLSX(c *gin.Context) {
	crit, err := criteriaFromQuery(c)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_filter", err)
		return
	}
	b, err := h.session.ExportXLSX(crit)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "export_failed", err)
		return
	}
	attachment(c, begehung.FilteredXLSXName, begehung.XLSXContentType, b)
}

func criteriaFromQuery(c *gin.Context) (begehung.Criteria, error) {
	st, err := begehung.ParseStatusFilter(c.Query("status"))
	if err != nil {
		return begehung.Criteria{}, err
	}
	return begehung.Criteria{
		TechnicianContains:   c.Query("technician"),
		CityContains:         c.Query("city"),
		Status:               st,
		VariantComboContains: c.Query("variant"),
	}, nil
}

func recordMaps(recs []begehung.InspectionRecord) []map[string]string {
	out := make([]map[string]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.Fields())
	}
	return out
}

func respondDomainError(c *gin.Context, err error) {
	var rowErr *begehung.InvalidRowError
	switch {
	case errors.Is(err, begehung.ErrUnknownVariant):
		RespondError(c, http.StatusNotFound, "unknown_variant", err)
	case errors.Is(err, begehung.ErrMalformedImport):
		RespondError(c, http.StatusBadRequest, "malformed_import", err)
	case errors.As(err, &rowErr):
		RespondError(c, http.StatusBadRequest, "invalid_row", err)
	case errors.Is(err, begehung.ErrReadOnly):
		RespondError(c, http.StatusConflict, "read_only", err)
	default:
		RespondError(c, http.StatusInternalServerError, "internal", err)
	}
}

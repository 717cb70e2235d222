package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/csg33k/fuel-receipts/internal/composer"
	"github.com/csg33k/fuel-receipts/internal/domain"
	"github.com/csg33k/fuel-receipts/internal/settlement"
	"github.com/csg33k/fuel-receipts/internal/templates"
)

const maxBody = 1 << 20

type itemRequest struct {
	Name     string           `json:"name"`
	Quantity decimal.Decimal  `json:"quantity"`
	Price    decimal.Decimal  `json:"price"`
	Pump     *int             `json:"pump,omitempty"`
	Qty      *decimal.Decimal `json:"qty,omitempty"`
}

type storeRequest struct {
	StoreCode string `json:"storeCode"`
	Address   string `json:"address"`
	CityState string `json:"cityState"`
	Phone     string `json:"phone"`
}

type receiptRequest struct {
	CompanyID          int64         `json:"companyId"`
	Country            string        `json:"country"`
	PaymentMethod      string        `json:"paymentMethod"`
	Items              []itemRequest `json:"items"`
	VehicleID          string        `json:"vehicleId"`
	DLNumber           string        `json:"dlNumber"`
	DriverCompanyName  string        `json:"driverCompanyName"`
	CheckNumber        string        `json:"checkNumber"`
	CheckNumberConfirm string        `json:"checkNumberConfirm"`
	DriverFirstName    string        `json:"driverFirstName"`
	DriverLastName     string        `json:"driverLastName"`
	CardLast4          string        `json:"cardLast4"`
	CardEntryMethod    string        `json:"cardEntryMethod"`
	CopyType           string        `json:"copyType"`
	IncludeSignature   bool          `json:"includeSignature"`
	StoreData          *storeRequest `json:"storeData,omitempty"`
	StoreID            int64         `json:"storeId"`
	// Format selects the download format, "pdf" or "txt".
	Format string `json:"format,omitempty"`
}

type receiptResponse struct {
	Success       bool                  `json:"success"`
	ReceiptNumber string                `json:"receiptNumber,omitempty"`
	FileName      string                `json:"fileName,omitempty"`
	DownloadURL   string                `json:"downloadUrl,omitempty"`
	Design        string                `json:"design,omitempty"`
	Error         string                `json:"error,omitempty"`
	FieldErrors   []domain.FieldProblem `json:"fieldErrors,omitempty"`
}

func items(in []itemRequest) []domain.LineItem {
	out := make([]domain.LineItem, len(in))
	for i, it := range in {
		out[i] = domain.LineItem{
			Name:             it.Name,
			DeclaredQuantity: it.Quantity,
			UnitPrice:        it.Price,
			PumpNumber:       it.Pump,
			MultiplierQty:    it.Qty,
		}
	}
	return out
}

func (req receiptRequest) toCompose() composer.Request {
	out := composer.Request{
		CompanyID:     req.CompanyID,
		Country:       req.Country,
		PaymentMethod: req.PaymentMethod,
		Items:         items(req.Items),
		Fields: map[domain.Field]string{
			domain.FieldVehicleID:          req.VehicleID,
			domain.FieldDLNumber:           req.DLNumber,
			domain.FieldCompanyName:        req.DriverCompanyName,
			domain.FieldCheckNumber:        req.CheckNumber,
			domain.FieldCheckNumberConfirm: req.CheckNumberConfirm,
			domain.FieldDriverFirstName:    req.DriverFirstName,
			domain.FieldDriverLastName:     req.DriverLastName,
			domain.FieldCardLast4:          req.CardLast4,
			domain.FieldCardEntryMethod:    req.CardEntryMethod,
			domain.FieldCopyType:           req.CopyType,
		},
		IncludeSignature: req.IncludeSignature,
		StoreID:          req.StoreID,
	}
	if sd := req.StoreData; sd != nil {
		out.Store = &domain.Store{StoreCode: sd.StoreCode, Address: sd.Address, CityState: sd.CityState, Phone: sd.Phone}
	}
	return out
}

// generateReceipt composes a receipt, stores the encoded file and answers
// with its download link. Nothing is stored when validation fails.
func (h *Handler) generateReceipt(w http.ResponseWriter, r *http.Request) {
	var req receiptRequest
	if err := decode(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, receiptResponse{Error: err.Error()})
		return
	}
	enc, ok := h.encoder(req.Format)
	if !ok {
		writeJSON(w, http.StatusBadRequest, receiptResponse{
			Error:       "unsupported format",
			FieldErrors: []domain.FieldProblem{{Field: "format", Message: fmt.Sprintf("unknown format %q", req.Format)}},
		})
		return
	}

	res, err := h.composer.Compose(r.Context(), req.toCompose())
	if err != nil {
		h.writeComposeError(w, r, err)
		return
	}

	name, err := h.files.Save(r.Context(), res.Document, enc)
	if err != nil {
		h.log.Error("store receipt", "receipt", res.Document.ReceiptNumber, "err", err)
		writeJSON(w, http.StatusInternalServerError, receiptResponse{Error: "could not store receipt"})
		return
	}
	writeJSON(w, http.StatusOK, receiptResponse{
		Success:       true,
		ReceiptNumber: res.Document.ReceiptNumber,
		FileName:      name,
		DownloadURL:   h.baseURL + "/receipts/" + name,
		Design:        res.Document.Design,
	})
}

func (h *Handler) writeComposeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *domain.ValidationError
	var rerr *domain.UnresolvedRuleError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, receiptResponse{Error: "validation failed", FieldErrors: verr.Problems})
	case errors.As(err, &rerr):
		// A rule-table defect; the combination itself was well formed.
		h.log.Error("unresolved rule", "merchant", rerr.Merchant, "jurisdiction", rerr.Jurisdiction,
			"tender", rerr.Tender, "reason", rerr.Reason, "rules", rerr.Rules)
		writeJSON(w, http.StatusInternalServerError, receiptResponse{Error: rerr.Error()})
	default:
		h.log.Error("compose receipt", "path", r.URL.Path, "err", err)
		writeJSON(w, http.StatusInternalServerError, receiptResponse{Error: "internal server error"})
	}
}

type profileResponse struct {
	Company       string                         `json:"company"`
	Merchant      string                         `json:"merchant"`
	Design        string                         `json:"design,omitempty"`
	Country       domain.Jurisdiction            `json:"country"`
	PaymentMethod domain.TenderType              `json:"paymentMethod"`
	Template      domain.TemplateKey             `json:"template"`
	TaxLabel      string                         `json:"taxLabel"`
	Profile       domain.FieldRequirementProfile `json:"profile"`
	Applied       []string                       `json:"applied"`
	Fallback      bool                           `json:"fallback,omitempty"`
}

// profile answers with the resolved field profile for the form. htmx
// requests get the HTML fragment instead.
func (h *Handler) profile(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	id, _ := strconv.ParseInt(q.Get("companyId"), 10, 64)
	t, res, err := h.composer.Profile(r.Context(), id, q.Get("country"), q.Get("paymentMethod"))
	if err != nil {
		h.writeComposeError(w, r, err)
		return
	}

	if r.Header.Get("HX-Request") == "true" {
		render(w, r, templates.Profile(templates.ProfileData{
			Merchant: t.Merchant.Name, Jurisdiction: t.Jurisdiction, Tender: t.Tender, Resolution: res,
		}))
		return
	}
	writeJSON(w, http.StatusOK, profileResponse{
		Company:       t.Company.Name,
		Merchant:      t.Merchant.Key,
		Country:       t.Jurisdiction,
		PaymentMethod: t.Tender,
		Template:      res.Template,
		TaxLabel:      res.Tax.Label,
		Profile:       res.Profile,
		Applied:       res.Applied,
		Fallback:      res.Fallback,
	})
}

type previewRequest struct {
	Country string        `json:"country"`
	Items   []itemRequest `json:"items"`
}

type previewLine struct {
	Name      string              `json:"name"`
	Kind      domain.LineItemKind `json:"kind"`
	Amount    string              `json:"amount"`
	Ambiguous bool                `json:"ambiguous,omitempty"`
}

type previewResponse struct {
	Lines       []previewLine `json:"lines"`
	Subtotal    string        `json:"subtotal"`
	Tax         string        `json:"tax"`
	Total       string        `json:"total"`
	FuelVolume  string        `json:"fuelVolume"`
	CashAdvance string        `json:"cashAdvance"`
}

func (h *Handler) preview(w http.ResponseWriter, r *http.Request) {
	var req previewRequest
	if err := decode(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, receiptResponse{Error: err.Error()})
		return
	}
	s, err := h.composer.Preview(items(req.Items), req.Country)
	if err != nil {
		h.writeComposeError(w, r, err)
		return
	}
	out := previewResponse{
		Lines:       make([]previewLine, len(s.Lines)),
		Subtotal:    settlement.Money(s.Subtotal),
		Tax:         settlement.Money(s.TaxAmount),
		Total:       settlement.Money(s.Total),
		FuelVolume:  settlement.Volume(s.FuelVolume),
		CashAdvance: settlement.Money(s.CashAdvance),
	}
	for i, l := range s.Lines {
		out.Lines[i] = previewLine{Name: l.Item.Name, Kind: l.Kind, Amount: settlement.Money(l.Amount), Ambiguous: l.Ambiguous}
	}
	writeJSON(w, http.StatusOK, out)
}

type companyJSON struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	MerchantKey string `json:"merchantKey,omitempty"`
	Country     string `json:"country"`
}

type storeJSON struct {
	ID        int64  `json:"id"`
	CompanyID int64  `json:"companyId"`
	StoreCode string `json:"storeCode"`
	Address   string `json:"address"`
	CityState string `json:"cityState"`
	Phone     string `json:"phone"`
}

func (h *Handler) listCompanies(w http.ResponseWriter, r *http.Request) {
	companies, err := h.companies.ListCompanies(r.Context())
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	out := make([]companyJSON, len(companies))
	for i, c := range companies {
		out[i] = companyJSON{ID: c.ID, Name: c.Name, MerchantKey: c.MerchantKey, Country: c.Country}
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) listStores(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		http.Error(w, "invalid id", 400)
		return
	}
	if _, err := h.companies.GetCompany(r.Context(), id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		h.serverError(w, r, err)
		return
	}
	stores, err := h.companies.ListStores(r.Context(), id)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	out := make([]storeJSON, len(stores))
	for i, s := range stores {
		out[i] = storeJSON{ID: s.ID, CompanyID: s.CompanyID, StoreCode: s.StoreCode, Address: s.Address, CityState: s.CityState, Phone: s.Phone}
	}
	writeJSON(w, http.StatusOK, out)
}

// ── JSON helpers ─────────────────────────────────────────────────────────────

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody)).Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

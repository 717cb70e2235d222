// Package templates holds the HTML pages served to the intake form. Pages are
// exposed as templ components so handlers render them the same way
// regardless of how each one is built.
package templates

import (
	"context"
	"html/template"
	"io"

	"github.com/a-h/templ"

	"github.com/csg33k/fuel-receipts/internal/domain"
	"github.com/csg33k/fuel-receipts/internal/rules"
)

// IndexData feeds the intake form.
type IndexData struct {
	Companies []domain.Company
	Countries []domain.Jurisdiction
	Tenders   []domain.TenderType
	Items     []domain.CatalogItem
	Fields    []domain.Field
}

// Index is the receipt intake page.
func Index(d IndexData) templ.Component {
	return component(pageTmpl, "base", d)
}

// ProfileData is one resolved combination, shown as a fragment.
type ProfileData struct {
	Merchant     string
	Jurisdiction domain.Jurisdiction
	Tender       domain.TenderType
	Resolution   rules.Resolution
}

// Profile renders the resolved field states as a table fragment.
func Profile(d ProfileData) templ.Component {
	return component(pageTmpl, "profile", d)
}

func component(t *template.Template, name string, data any) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		return t.ExecuteTemplate(w, name, data)
	})
}

var funcs = template.FuncMap{
	"money":      money,
	"price":      price,
	"itoa":       itoa,
	"fieldLabel": fieldLabel,
	"tenderLabel": func(t domain.TenderType) string {
		return t.Label()
	},
	"requirement": func(p domain.FieldRequirementProfile, f domain.Field) string {
		return p.Get(f).String()
	},
	"isCheckbox": func(f domain.Field) bool {
		return f == domain.FieldSignature || f == domain.FieldItemQuantity
	},
}

var pageTmpl = template.Must(template.New("pages").Funcs(funcs).Parse(`
{{define "base"}}<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>Fuel Receipt Generator</title>
<script src="https://unpkg.com/htmx.org@1.9.12"></script>
<link href="https://fonts.googleapis.com/css2?family=IBM+Plex+Mono:wght@400;500;600&family=IBM+Plex+Sans:wght@300;400;500;600&display=swap" rel="stylesheet">
<style>
  :root {
    --ink: #0d1117;
    --paper: #f5f0e8;
    --ledger: #e8e0cc;
    --accent: #c0392b;
    --accent2: #2c6e49;
    --muted: #6b5e4e;
    --rule: #b8a898;
  }
  * { box-sizing: border-box; }
  body {
    background: var(--paper);
    color: var(--ink);
    font-family: 'IBM Plex Sans', sans-serif;
    max-width: 960px;
    margin: 0 auto;
    padding: 24px;
  }
  .mono { font-family: 'IBM Plex Mono', monospace; }
  .card {
    background: rgba(255,255,255,0.7);
    border: 1px solid var(--ledger);
    border-left: 4px solid var(--ink);
    padding: 16px;
    margin-bottom: 16px;
  }
  .grid { display: grid; grid-template-columns: repeat(3, 1fr); gap: 12px; }
  .field-label {
    font-family: 'IBM Plex Mono', monospace;
    font-size: 0.6rem;
    font-weight: 600;
    letter-spacing: 0.1em;
    text-transform: uppercase;
    color: var(--muted);
    display: block;
    margin-bottom: 2px;
  }
  .field-label.required::after { content: " *"; color: var(--accent); }
  input, select {
    background: white;
    border: 1px solid var(--rule);
    border-bottom: 2px solid var(--ink);
    padding: 6px 8px;
    font-family: 'IBM Plex Mono', monospace;
    font-size: 0.85rem;
    width: 100%;
    outline: none;
  }
  input[type=checkbox] { width: auto; }
  input:focus, select:focus { border-bottom-color: var(--accent); }
  .btn {
    font-family: 'IBM Plex Mono', monospace;
    font-weight: 600;
    font-size: 0.8rem;
    letter-spacing: 0.08em;
    padding: 8px 18px;
    border: 2px solid var(--ink);
    cursor: pointer;
    text-transform: uppercase;
    background: white;
  }
  .btn-primary { background: var(--ink); color: white; }
  .btn-primary:hover { background: var(--accent); border-color: var(--accent); }
  .section-header {
    font-family: 'IBM Plex Mono', monospace;
    font-size: 0.7rem;
    font-weight: 600;
    letter-spacing: 0.18em;
    text-transform: uppercase;
    color: var(--muted);
    border-bottom: 1px solid var(--rule);
    padding-bottom: 4px;
    margin-bottom: 16px;
  }
  .error { color: var(--accent); font-family: 'IBM Plex Mono', monospace; font-size: 0.8rem; }
  .ok { color: var(--accent2); font-family: 'IBM Plex Mono', monospace; }
  table.profile { border-collapse: collapse; width: 100%; font-size: 0.8rem; }
  table.profile td { border-bottom: 1px solid var(--ledger); padding: 2px 6px; }
  [hidden] { display: none !important; }
</style>
</head>
<body>
<h1 class="mono">FUEL RECEIPT GENERATOR</h1>

<form id="receipt-form" autocomplete="off">
  <div class="card">
    <div class="section-header">Transaction</div>
    <div class="grid">
      <label><span class="field-label required">Company</span>
        <select name="companyId" data-profile-input>
          <option value="">Select a company</option>
          {{range .Companies}}<option value="{{itoa .ID}}">{{.Name}}</option>{{end}}
        </select>
      </label>
      <label><span class="field-label required">Country</span>
        <select name="country" data-profile-input>
          {{range .Countries}}<option value="{{.}}">{{.}}</option>{{end}}
        </select>
      </label>
      <label><span class="field-label required">Payment Method</span>
        <select name="paymentMethod" data-profile-input>
          {{range .Tenders}}<option value="{{.}}">{{tenderLabel .}}</option>{{end}}
        </select>
      </label>
      <label><span class="field-label">Store #</span>
        <select name="storeId" id="store-select"><option value="">Default</option></select>
      </label>
    </div>
  </div>

  <div class="card">
    <div class="section-header">Items</div>
    <datalist id="catalog">
      {{range .Items}}<option value="{{.Name}}" data-price="{{price .DefaultPrice}}">{{end}}
    </datalist>
    <div id="items">
      <div class="grid item-row">
        <label><span class="field-label">Item</span><input name="name" list="catalog" value="Diesel"></label>
        <label><span class="field-label" data-label="volume">Volume</span><input name="quantity" inputmode="decimal"></label>
        <label><span class="field-label" data-label="unitPrice">Price</span><input name="price" inputmode="decimal"></label>
        <label><span class="field-label">Pump</span><input name="pump" inputmode="numeric"></label>
        <label data-field="itemQuantity"><span class="field-label" data-label="quantity">Qty</span><input name="qty" inputmode="decimal"></label>
      </div>
    </div>
    <button type="button" class="btn" id="add-item">+ Item</button>
    <button type="button" class="btn" id="preview">Preview Totals</button>
    <div id="preview-result" class="mono"></div>
  </div>

  <div class="card">
    <div class="section-header">Receipt Details</div>
    <div class="grid">
      {{range .Fields}}
      <label data-field="{{.}}" hidden>
        <span class="field-label">{{fieldLabel .}}</span>
        {{if isCheckbox .}}<input type="checkbox" name="{{.}}">{{else}}<input name="{{.}}">{{end}}
      </label>
      {{end}}
    </div>
  </div>

  <button type="submit" class="btn btn-primary">Generate Receipt</button>
  <div id="result"></div>
</form>

<script>
(function () {
  const form = document.getElementById("receipt-form");
  const q = (sel, root) => (root || document).querySelector(sel);

  // The server owns every visibility decision; this applies its answer.
  async function applyProfile() {
    const params = new URLSearchParams({
      companyId: form.companyId.value,
      country: form.country.value,
      paymentMethod: form.paymentMethod.value,
    });
    if (!form.companyId.value) return;
    const res = await fetch("/api/profile?" + params);
    const body = await res.json();
    if (!res.ok) { q("#result").innerHTML = "<p class=error>" + (body.error || res.statusText) + "</p>"; return; }
    document.querySelectorAll("[data-field]").forEach(el => {
      const state = body.profile.fields[el.dataset.field] || "optional";
      el.hidden = state === "hidden";
      el.querySelectorAll("input").forEach(i => { i.disabled = el.hidden; i.required = state === "required" && i.type !== "checkbox"; });
      const label = q(".field-label", el);
      if (label) label.classList.toggle("required", state === "required");
    });
    document.querySelectorAll("[data-label]").forEach(el => {
      const text = body.profile.labels[el.dataset.label];
      if (text) el.textContent = text;
    });
    loadStores();
  }

  async function loadStores() {
    const sel = q("#store-select");
    sel.length = 1;
    const res = await fetch("/api/companies/" + form.companyId.value + "/stores");
    if (!res.ok) return;
    for (const s of await res.json()) sel.add(new Option(s.storeCode + " " + s.cityState, s.id));
  }

  function items() {
    return [...document.querySelectorAll(".item-row")].map(row => {
      const get = n => { const i = q("[name=" + n + "]", row); return i && !i.disabled && i.value ? i.value : undefined; };
      return { name: get("name"), quantity: get("quantity"), price: get("price"), pump: get("pump") && Number(get("pump")), qty: get("qty") };
    }).filter(i => i.name);
  }

  function payload() {
    const p = {
      companyId: Number(form.companyId.value),
      country: form.country.value,
      paymentMethod: form.paymentMethod.value,
      storeId: form.storeId.value ? Number(form.storeId.value) : undefined,
      items: items(),
    };
    document.querySelectorAll("[data-field] input").forEach(i => {
      if (i.disabled) return;
      if (i.name === "signature") p.includeSignature = i.checked;
      else if (i.type !== "checkbox" && i.value) p[i.name === "companyName" ? "driverCompanyName" : i.name] = i.value;
    });
    return p;
  }

  form.querySelectorAll("[data-profile-input]").forEach(el => el.addEventListener("change", applyProfile));

  q("#add-item").addEventListener("click", () => {
    const row = q(".item-row").cloneNode(true);
    row.querySelectorAll("input").forEach(i => { i.value = ""; });
    q("#items").appendChild(row);
  });

  q("#preview").addEventListener("click", async () => {
    const res = await fetch("/api/preview", { method: "POST", headers: { "Content-Type": "application/json" },
      body: JSON.stringify({ country: form.country.value, items: items() }) });
    const body = await res.json();
    q("#preview-result").textContent = res.ok
      ? "SUBTOTAL " + body.subtotal + "  TAX " + body.tax + "  TOTAL " + body.total
      : (body.error || res.statusText);
  });

  form.addEventListener("submit", async ev => {
    ev.preventDefault();
    const res = await fetch("/api/generate-receipt", { method: "POST", headers: { "Content-Type": "application/json" },
      body: JSON.stringify(payload()) });
    const body = await res.json();
    const out = q("#result");
    if (body.success) {
      out.innerHTML = "<p class=ok>" + body.receiptNumber + " (" + body.design + ") <a href=\"" + body.downloadUrl + "\">download</a></p>";
      return;
    }
    const errs = (body.fieldErrors || []).map(e => "<li>" + e.field + ": " + e.message + "</li>").join("");
    out.innerHTML = "<p class=error>" + (body.error || "failed") + "</p><ul class=error>" + errs + "</ul>";
  });
})();
</script>
</body>
</html>
{{end}}

{{define "profile"}}<div class="card">
  <div class="section-header">{{.Merchant}} · {{.Jurisdiction}} · {{tenderLabel .Tender}}</div>
  <p class="mono">template {{.Resolution.Template}} · tax {{.Resolution.Tax.Label}}{{if .Resolution.Fallback}} · <span class="error">fallback</span>{{end}}</p>
  <table class="profile mono">
    {{$p := .Resolution.Profile}}
    {{range $f, $_ := $p.Fields}}<tr><td>{{fieldLabel $f}}</td><td>{{requirement $p $f}}</td></tr>
    {{end}}
  </table>
  <p class="mono">rules: {{range $i, $r := .Resolution.Applied}}{{if $i}}, {{end}}{{$r}}{{end}}</p>
</div>
{{end}}
`))

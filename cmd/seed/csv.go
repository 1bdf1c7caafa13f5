package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/insanjo-pos/internal/application/dto"
)

var seedColumns = []string{"name", "description", "availableStock", "purchasePrice", "sellingPrice", "stockDate"}

type seedRow struct {
	Line    int
	Request dto.CreateProductRequest
}

// parseProducts lee el CSV de productos. Acepta "," o ";" como separador
// y coma decimal en los precios ("1500,50").
func parseProducts(r io.Reader) ([]seedRow, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	text := strings.TrimPrefix(string(data), "\ufeff")

	cr := csv.NewReader(strings.NewReader(text))
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1
	if first, _, _ := strings.Cut(text, "\n"); strings.Count(first, ";") > strings.Count(first, ",") {
		cr.Comma = ';'
	}

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("CSV vacío")
		}
		return nil, err
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(h)] = i
	}
	for _, col := range seedColumns[:5] {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("falta la columna %q", col)
		}
	}

	var rows []seedRow
	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("línea %d: %w", line, err)
		}
		get := func(col string) string {
			i, ok := idx[col]
			if !ok || i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}
		if get("name") == "" && get("sellingPrice") == "" {
			continue
		}

		name := get("name")
		stock, err := strconv.Atoi(get("availableStock"))
		if err != nil {
			return nil, fmt.Errorf("línea %d: availableStock inválido", line)
		}
		purchase, err := parseAmount(get("purchasePrice"))
		if err != nil {
			return nil, fmt.Errorf("línea %d: purchasePrice inválido", line)
		}
		selling, err := parseAmount(get("sellingPrice"))
		if err != nil {
			return nil, fmt.Errorf("línea %d: sellingPrice inválido", line)
		}
		req := dto.CreateProductRequest{
			Name:           &name,
			Description:    get("description"),
			AvailableStock: &stock,
			PurchasePrice:  &purchase,
			SellingPrice:   &selling,
		}
		if d := get("stockDate"); d != "" {
			req.StockDate = &d
		}
		rows = append(rows, seedRow{Line: line, Request: req})
	}
	return rows, nil
}

func parseAmount(s string) (decimal.Decimal, error) {
	s = strings.ReplaceAll(s, " ", "")
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}
	return decimal.NewFromString(s)
}

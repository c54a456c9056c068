package main

import (
	"flag"
	"fmt"
	"log"
	"path/filepath"

	"github.com/xuri/excelize/v2"
)

type fixture struct {
	file    string
	sheet   string
	preface [][]any // title rows above the header
	headers []string
	rows    [][]any
}

var fixtures = []fixture{
	{
		file:  "santander_cartola.xlsx",
		sheet: "Movimientos",
		preface: [][]any{
			{"Banco Santander Chile", "Cartola Histórica"},
			{"Cuenta Corriente Nº 0-000-71-23456-7"},
		},
		headers: []string{"Fecha", "Descripción", "N° Documento", "Cargos", "Abonos", "Saldo"},
		rows: [][]any{
			{"02/04/2024", "Saldo anterior", "", "", "", 2_500_000},
			{"03/04/2024", "Transf. a Comercial Andes Ltda 76.123.456-0", "4512", 320_000, "", 2_180_000},
			{"08/04/2024", "Transf. de Cliente Norte SpA 77.111.222-6", "4519", "", 1_150_000, 3_330_000},
			{"15/04/2024", "Pago remuneración 12.345.678-5", "4530", 650_000, "", 2_680_000},
			{"30/04/2024", "Comisión mantención plan", "", 5_990, "", 2_674_010},
		},
	},
	{
		file:    "bci_movimientos.xlsx",
		sheet:   "Hoja1",
		headers: []string{"Fecha", "Glosa", "Tipo", "Monto", "RUT Origen", "RUT Destino"},
		rows: [][]any{
			{"05/05/2024", "Transferencia recibida", "Abono", 480_000, "76.543.210-3", ""},
			{"06/05/2024", "Transferencia enviada", "Cargo", 95_000, "", "12.345.678-5"},
			{"20/05/2024", "Pago PAC seguro", "Cargo", 42_300, "", ""},
		},
	},
}

func main() {
	dir := flag.String("dir", "testdata", "output directory")
	flag.Parse()

	for _, fx := range fixtures {
		path := filepath.Join(*dir, fx.file)
		if err := write(fx, path); err != nil {
			log.Fatalf("failed to generate %s: %v", path, err)
		}
		fmt.Println("✓ Generated", path)
	}
	fmt.Println("\n✅ All XLSX fixtures generated successfully!")
}

func write(fx fixture, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", fx.sheet); err != nil {
		return err
	}

	row := 1
	setRow := func(values []any) error {
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		row++
		return f.SetSheetRow(fx.sheet, cell, &values)
	}

	for _, p := range fx.preface {
		if err := setRow(p); err != nil {
			return err
		}
	}
	headers := make([]any, len(fx.headers))
	for i, h := range fx.headers {
		headers[i] = h
	}
	if err := setRow(headers); err != nil {
		return err
	}
	for _, r := range fx.rows {
		if err := setRow(r); err != nil {
			return err
		}
	}

	return f.SaveAs(path)
}

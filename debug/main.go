//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Copyright (C) 2025 Aaron Mathis aaron.mathis@gmail.com
//
// This file is part of GoParsnip.
//
// GoParsnip is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// GoParsnip is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with GoParsnip. If not, see https://www.gnu.org/licenses/.

// Command debug inspects GoParsnip inputs and pipeline documents.
//
//	debug parquet FILE        print the Parquet layout and the first records
//	debug doc FILE            diff a pipeline document against its normalized form
//	debug apply FILE RECORD   run a pipeline document over one JSON record
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/apache/arrow/go/v12/parquet/file"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/aaronlmathis/goparsnip"
	"github.com/aaronlmathis/goparsnip/logging"
	"github.com/aaronlmathis/goparsnip/readers"
	"github.com/aaronlmathis/goparsnip/value"
)

var (
	heading = color.New(color.FgCyan, color.Bold)
	added   = color.New(color.FgGreen)
	removed = color.New(color.FgRed)
)

func main() {
	limit := flag.Int("n", 5, "records to preview")
	flag.Parse()
	if !isatty.IsTerminal(os.Stdout.Fd()) {
		color.NoColor = true
	}

	args := flag.Args()
	var err error
	switch {
	case len(args) == 2 && args[0] == "parquet":
		err = inspectParquet(args[1], *limit)
	case len(args) == 2 && args[0] == "doc":
		var same bool
		same, err = diffDocument(os.Stdout, args[1])
		if err == nil && !same {
			os.Exit(2)
		}
	case len(args) == 3 && args[0] == "apply":
		err = applyDocument(os.Stdout, args[1], args[2])
	default:
		fmt.Fprintln(os.Stderr, "usage: debug [-n N] parquet FILE | doc FILE | apply FILE RECORD")
		os.Exit(64)
	}
	if err != nil {
		color.New(color.FgRed, color.Bold).Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func inspectParquet(path string, limit int) error {
	pf, err := file.OpenParquetFile(path, false)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	heading.Printf("%s\n", path)
	fmt.Printf("%d rows in %d row groups\n", pf.NumRows(), pf.NumRowGroups())
	for i := 0; i < pf.NumRowGroups(); i++ {
		fmt.Printf("  row group %d: %d rows\n", i, pf.RowGroup(i).NumRows())
	}
	schema := pf.MetaData().Schema
	for i := 0; i < schema.NumColumns(); i++ {
		col := schema.Column(i)
		fmt.Printf("  column %d: %s (%s)\n", i, col.Path(), col.PhysicalType())
	}
	if err := pf.Close(); err != nil {
		return err
	}

	r, err := readers.NewParquetReader(path)
	if err != nil {
		return err
	}
	defer r.Close()
	heading.Println("records")
	for i := 0; i < limit; i++ {
		d, err := r.Read(context.Background())
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		fmt.Println(d)
	}
	return nil
}

// diffDocument prints a line diff between a document as written and as the engine encodes it.
// Unchanged documents report true.
func diffDocument(w io.Writer, path string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}
	etl, err := goparsnip.ParseEtl(data)
	if err != nil {
		return false, err
	}
	written, err := canonical(data)
	if err != nil {
		return false, err
	}
	encoded, err := json.Marshal(etl)
	if err != nil {
		return false, err
	}
	normalized, err := canonical(encoded)
	if err != nil {
		return false, err
	}

	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(written, normalized)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)
	same := true
	for _, d := range diffs {
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			switch d.Type {
			case diffmatchpatch.DiffInsert:
				same = false
				added.Fprint(w, "+ "+line)
			case diffmatchpatch.DiffDelete:
				same = false
				removed.Fprint(w, "- "+line)
			default:
				fmt.Fprint(w, "  "+line)
			}
		}
	}
	return same, nil
}

// canonical renders a JSON or YAML document as indented JSON in document key order.
func canonical(data []byte) (string, error) {
	doc, err := value.ParseJSON(data)
	if err != nil {
		if doc, err = value.ParseYAML(data); err != nil {
			return "", err
		}
	}
	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", err
	}
	return string(out) + "\n", nil
}

func applyDocument(w io.Writer, path, record string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	etl, err := goparsnip.ParseEtl(data)
	if err != nil {
		return err
	}
	in, err := value.ParseJSON([]byte(record))
	if err != nil {
		return err
	}
	m, ok := in.(*value.Map)
	if !ok {
		return fmt.Errorf("record must be a JSON object, got %s", value.KindOf(in))
	}
	out, err := etl.Transform(m)
	if err != nil {
		return err
	}
	if out == nil {
		heading.Fprintln(w, "record was not extracted")
		return nil
	}
	heading.Fprintln(w, "result")
	fmt.Fprint(w, logging.Dump(out))
	return nil
}

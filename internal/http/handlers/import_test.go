package handlers

import (
	"bytes"
	"mime/multipart"
	"testing"

	"github.com/knockline/backend/internal/models"
)

func TestParseContactsCSV(t *testing.T) {
	content := "name,address,phone,list\nAnn Doe,500 Oak St,555-0100,prospects\nBob Roe,12 Birch Rd,,customers\n"
	fh := makeMultipartFile(t, "contacts", "contacts.csv", content)

	contacts, errs := parseContactsCSV(fh)
	if len(errs) > 0 {
		t.Fatalf("expected no errors, got %v", errs)
	}
	if len(contacts) != 2 {
		t.Fatalf("expected 2 contacts, got %d", len(contacts))
	}
	if contacts[0].List != models.ListProspects || contacts[1].List != models.ListCustomers {
		t.Fatalf("unexpected list classification: %+v", contacts)
	}
	if contacts[0].ID == "" {
		t.Fatalf("expected generated id for rows without one")
	}
	if contacts[0].Lat != nil {
		t.Fatalf("rows without coordinates must stay nil")
	}
}

func TestParseContactsCSVSplitHouseColumn(t *testing.T) {
	content := "name,street,house\nAnn Doe,Oak St,500\n"
	fh := makeMultipartFile(t, "contacts", "contacts.csv", content)

	contacts, errs := parseContactsCSV(fh)
	if len(errs) > 0 {
		t.Fatalf("expected no errors, got %v", errs)
	}
	if len(contacts) != 1 || contacts[0].Address != "500 Oak St" {
		t.Fatalf("expected joined address, got %+v", contacts)
	}
}

func TestParseContactsCSVMissingAddress(t *testing.T) {
	content := "name,address\nAnn Doe,\n"
	fh := makeMultipartFile(t, "contacts", "contacts.csv", content)

	contacts, errs := parseContactsCSV(fh)
	if len(contacts) != 0 {
		t.Fatalf("expected row rejected, got %+v", contacts)
	}
	if len(errs) != 1 {
		t.Fatalf("expected one error, got %v", errs)
	}
}

func makeMultipartFile(t *testing.T, fieldName, filename, content string) *multipart.FileHeader {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile(fieldName, filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte(content)); err != nil {
		t.Fatalf("write content: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	reader := multipart.NewReader(&buf, writer.Boundary())
	form, err := reader.ReadForm(int64(buf.Len()))
	if err != nil {
		t.Fatalf("read form: %v", err)
	}
	files := form.File[fieldName]
	if len(files) == 0 {
		t.Fatalf("no file headers found")
	}
	return files[0]
}

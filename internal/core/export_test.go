package core_test

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/softjail/internal/core"
	"github.com/JonMunkholm/softjail/internal/store/memory"
)

const (
	fixtureDepartments = `[
  {"Name": "Alpha", "Cells": [{"CellNumber": 10, "HasWindow": true}, {"CellNumber": 20, "HasWindow": false}]},
  {"Name": "Beta", "Cells": [{"CellNumber": 30, "HasWindow": true}]}
]`

	fixturePrisoners = `[
  {"FullName": "Zed Zulu", "Age": 30, "IncarcerationDate": "01/05/2020", "CellId": 1,
   "Mails": [{"Description": "hello", "Sender": "Mom", "Address": "mom@home.com"}]},
  {"FullName": "Excluded One", "Age": 31, "IncarcerationDate": "01/05/2020", "CellId": 2},
  {"FullName": "Adam Apple", "Age": 32, "IncarcerationDate": "02/05/2020",
   "Mails": [
     {"Description": "abc def", "Sender": "Sis", "Address": "sis@home.com"},
     {"Description": "xyz", "Sender": "Bro", "Address": "bro@home.com"}]},
  {"FullName": "Adam Apple", "Age": 33, "IncarcerationDate": "03/05/2020", "CellId": 3}
]`

	fixtureOfficers = `<Officers>
  <Officer>
    <Name>Walter White</Name>
    <Money>100.005</Money>
    <Position>Warden</Position>
    <Weapon>Gun</Weapon>
    <DepartmentId>1</DepartmentId>
    <Prisoners><Prisoner id="1" /><Prisoner id="3" /></Prisoners>
  </Officer>
  <Officer>
    <Name>Bob Brown</Name>
    <Money>50.001</Money>
    <Position>Guard</Position>
    <Weapon>Baton</Weapon>
    <DepartmentId>2</DepartmentId>
    <Prisoners><Prisoner id="1" /></Prisoners>
  </Officer>
</Officers>`
)

// seedJail imports the fixtures into a fresh memory store.
func seedJail(t *testing.T) *memory.DB {
	t.Helper()
	ctx := context.Background()
	db := memory.New()

	_, err := core.ImportDepartmentsCells(ctx, db.Session(), fixtureDepartments)
	require.NoError(t, err)
	_, err = core.ImportPrisonersMails(ctx, db.Session(), fixturePrisoners)
	require.NoError(t, err)
	_, err = core.ImportOfficersPrisoners(ctx, db.Session(), fixtureOfficers)
	require.NoError(t, err)
	return db
}

func TestExportPrisonersByCells_Exact(t *testing.T) {
	db := seedJail(t)

	out, err := core.ExportPrisonersByCells(context.Background(), db.Session(), []int64{4, 1})
	require.NoError(t, err)

	want := `[
  {
    "Id": 4,
    "Name": "Adam Apple",
    "CellNumber": 30,
    "Officers": [],
    "TotalOfficerSalary": 0.00
  },
  {
    "Id": 1,
    "Name": "Zed Zulu",
    "CellNumber": 10,
    "Officers": [
      {
        "OfficerName": "Bob Brown",
        "Department": "Beta"
      },
      {
        "OfficerName": "Walter White",
        "Department": "Alpha"
      }
    ],
    "TotalOfficerSalary": 150.01
  }
]`
	assert.Equal(t, want, out)
}

func TestExportPrisonersByCells_FilterAndOrder(t *testing.T) {
	db := seedJail(t)

	out, err := core.ExportPrisonersByCells(context.Background(), db.Session(), []int64{1, 3, 4, 99})
	require.NoError(t, err)

	var got []core.PrisonerByCellsOut
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 3)

	assert.Equal(t, []int64{3, 4, 1}, []int64{got[0].ID, got[1].ID, got[2].ID}, "name then id")
	assert.Nil(t, got[0].CellNumber, "no cell renders as null")
	assert.Equal(t, json.Number("100.01"), got[0].TotalOfficerSalary)
	for _, p := range got {
		assert.NotEqual(t, "Excluded One", p.Name)
	}
}

func TestExportPrisonersByCells_NoMatch(t *testing.T) {
	db := seedJail(t)

	out, err := core.ExportPrisonersByCells(context.Background(), db.Session(), []int64{2000})
	require.NoError(t, err)
	assert.Equal(t, "[]", out)

	out, err = core.ExportPrisonersByCells(context.Background(), memory.New().Session(), nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", out)
}

type inboxDoc struct {
	XMLName   xml.Name `xml:"Prisoners"`
	Prisoners []struct {
		ID                int64    `xml:"Id"`
		Name              string   `xml:"Name"`
		IncarcerationDate string   `xml:"IncarcerationDate"`
		Messages          []string `xml:"EncryptedMessages>Message>Description"`
	} `xml:"Prisoner"`
}

func TestExportPrisonersInbox(t *testing.T) {
	db := seedJail(t)

	out, err := core.ExportPrisonersInbox(context.Background(), db.Session(), "Zed Zulu,Adam Apple")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, xml.Header+"<Prisoners>\n  <Prisoner>\n    <Id>3</Id>"), out)
	assert.True(t, strings.HasSuffix(out, "</Prisoners>"))
	assert.NotContains(t, out, "xmlns")
	assert.Contains(t, out, "<Description>olleh</Description>")
	assert.Contains(t, out, "<IncarcerationDate>2020-05-01</IncarcerationDate>")

	var doc inboxDoc
	require.NoError(t, xml.Unmarshal([]byte(out), &doc))
	require.Len(t, doc.Prisoners, 3)

	adam := doc.Prisoners[0]
	assert.Equal(t, int64(3), adam.ID)
	assert.Equal(t, "2020-05-02", adam.IncarcerationDate)
	assert.Equal(t, []string{"fed cba", "zyx"}, adam.Messages)

	assert.Equal(t, int64(4), doc.Prisoners[1].ID)
	assert.Empty(t, doc.Prisoners[1].Messages)

	zed := doc.Prisoners[2]
	assert.Equal(t, "Zed Zulu", zed.Name)
	assert.Equal(t, []string{"olleh"}, zed.Messages)
}

func TestExportPrisonersInbox_NamesNotTrimmed(t *testing.T) {
	db := seedJail(t)

	out, err := core.ExportPrisonersInbox(context.Background(), db.Session(), "Adam Apple, Zed Zulu")
	require.NoError(t, err)

	var doc inboxDoc
	require.NoError(t, xml.Unmarshal([]byte(out), &doc))
	require.Len(t, doc.Prisoners, 2)
	for _, p := range doc.Prisoners {
		assert.Equal(t, "Adam Apple", p.Name)
	}
}

func TestExportPrisonersInbox_NoMatch(t *testing.T) {
	db := seedJail(t)

	out, err := core.ExportPrisonersInbox(context.Background(), db.Session(), "Nobody")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, xml.Header))
	assert.NotContains(t, out, "<Prisoner>")
	assert.Equal(t, xml.Header+"<Prisoners></Prisoners>", strings.TrimRight(out, "\n"))

	var doc inboxDoc
	require.NoError(t, xml.Unmarshal([]byte(out), &doc))
	assert.Empty(t, doc.Prisoners)
}

func TestExportPrisonersByCellsXLSX(t *testing.T) {
	db := seedJail(t)

	data, err := core.ExportPrisonersByCellsXLSX(context.Background(), db.Session(), []int64{1, 4})
	require.NoError(t, err)

	f, err := excelize.OpenReader(strings.NewReader(string(data)))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Prisoners")
	require.NoError(t, err)
	require.Len(t, rows, 4, "header, Adam without officers, Zed with two officers")

	assert.Equal(t, []string{"Id", "Name", "Cell Number", "Officer Name", "Department", "Total Officer Salary"}, rows[0])
	assert.Equal(t, "4", rows[1][0])
	assert.Equal(t, "Adam Apple", rows[1][1])
	assert.Equal(t, "Bob Brown", rows[2][3])
	assert.Equal(t, "Walter White", rows[3][3])
	assert.Equal(t, "150.01", rows[3][5])
}

func TestRoundTrip_ImportThenExport(t *testing.T) {
	ctx := context.Background()
	db := memory.New()

	_, err := core.ImportDepartmentsCells(ctx, db.Session(),
		`[{"Name": "Gamma", "Cells": [{"CellNumber": 7, "HasWindow": false}]}]`)
	require.NoError(t, err)
	report, err := core.ImportPrisonersMails(ctx, db.Session(),
		`[{"FullName": "Round Tripper", "Age": 44, "IncarcerationDate": "09/09/2019", "CellId": 1}]`)
	require.NoError(t, err)
	assert.Equal(t, "Imported Round Tripper 44 years old", report)
	report, err = core.ImportOfficersPrisoners(ctx, db.Session(),
		`<Officers><Officer><Name>Keeper One</Name><Money>999.999</Money><Position>Overseer</Position><Weapon>Knife</Weapon><DepartmentId>1</DepartmentId><Prisoners><Prisoner id="1"/></Prisoners></Officer></Officers>`)
	require.NoError(t, err)
	assert.Equal(t, "Imported Keeper One (1 prisoners)", report)

	out, err := core.ExportPrisonersByCells(ctx, db.Session(), []int64{1})
	require.NoError(t, err)

	var got []core.PrisonerByCellsOut
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "Round Tripper", got[0].Name)
	require.NotNil(t, got[0].CellNumber)
	assert.Equal(t, 7, *got[0].CellNumber)
	assert.Equal(t, []core.OfficerOut{{OfficerName: "Keeper One", Department: "Gamma"}}, got[0].Officers)
	assert.Equal(t, json.Number("1000.00"), got[0].TotalOfficerSalary)
}

func TestImport_ForeignKeyFailureCommitsNothing(t *testing.T) {
	ctx := context.Background()
	db := memory.New()

	_, err := core.ImportPrisonersMails(ctx, db.Session(), `[
  {"FullName": "Valid Prisoner", "Age": 30, "IncarcerationDate": "01/01/2020"},
  {"FullName": "Missing Cell", "Age": 30, "IncarcerationDate": "01/01/2020", "CellId": 42}
]`)
	assert.ErrorIs(t, err, core.ErrForeignKey)

	out, err := core.ExportPrisonersInbox(ctx, db.Session(), "Valid Prisoner")
	require.NoError(t, err)
	assert.NotContains(t, out, "Valid Prisoner")
}

func TestImport_TaintedPrisonerMailsNeverPersisted(t *testing.T) {
	ctx := context.Background()
	db := memory.New()

	_, err := core.ImportPrisonersMails(ctx, db.Session(), `[
  {"FullName": "Tainted One", "Age": 30, "IncarcerationDate": "01/01/2020",
   "Mails": [{"Description": "keep me", "Sender": "A", "Address": "a@b.cd"}, {"Description": "x", "Sender": "B", "Address": "bad"}]}
]`)
	require.NoError(t, err)

	got, err := db.Session().Prisoners(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

package core

import (
	"encoding/json"
	"encoding/xml"
)

// Import payload shapes. Pointer fields distinguish an absent value from a
// zero value so presence rules can be enforced.

// DepartmentInput is one element of the departments JSON array.
type DepartmentInput struct {
	Name  *string     `json:"Name"`
	Cells []CellInput `json:"Cells"`
}

// CellInput is one cell of a DepartmentInput.
type CellInput struct {
	CellNumber *int  `json:"CellNumber"`
	HasWindow  *bool `json:"HasWindow"`
}

// PrisonerInput is one element of the prisoners JSON array.
type PrisonerInput struct {
	FullName          *string      `json:"FullName"`
	Nickname          *string      `json:"Nickname"`
	Age               *int         `json:"Age"`
	IncarcerationDate *string      `json:"IncarcerationDate"`
	ReleaseDate       *string      `json:"ReleaseDate"`
	Bail              *json.Number `json:"Bail"`
	CellID            *int64       `json:"CellId"`
	Mails             []MailInput  `json:"Mails"`
}

// MailInput is one mail of a PrisonerInput.
type MailInput struct {
	Description *string `json:"Description"`
	Sender      *string `json:"Sender"`
	Address     *string `json:"Address"`
}

// officersDocument is the root of the officers XML payload.
type officersDocument struct {
	XMLName  xml.Name       `xml:"Officers"`
	Officers []OfficerInput `xml:"Officer"`
}

// OfficerInput is one Officer element of the officers XML payload.
type OfficerInput struct {
	Name         string          `xml:"Name"`
	Money        *string         `xml:"Money"`
	Position     string          `xml:"Position"`
	Weapon       string          `xml:"Weapon"`
	DepartmentID *int64          `xml:"DepartmentId"`
	Prisoners    []PrisonerRefIn `xml:"Prisoners>Prisoner"`
}

// PrisonerRefIn references an existing prisoner by id.
type PrisonerRefIn struct {
	ID int64 `xml:"id,attr"`
}

// Export shapes.

// PrisonerByCellsOut is one element of the by-id JSON export.
type PrisonerByCellsOut struct {
	ID                 int64        `json:"Id"`
	Name               string       `json:"Name"`
	CellNumber         *int         `json:"CellNumber"`
	Officers           []OfficerOut `json:"Officers"`
	TotalOfficerSalary json.Number  `json:"TotalOfficerSalary"`
}

// OfficerOut names one officer guarding an exported prisoner.
type OfficerOut struct {
	OfficerName string `json:"OfficerName"`
	Department  string `json:"Department"`
}

// prisonersInboxDocument is the root of the inbox XML export.
type prisonersInboxDocument struct {
	XMLName   xml.Name           `xml:"Prisoners"`
	Prisoners []PrisonerInboxOut `xml:"Prisoner"`
}

// PrisonerInboxOut is one Prisoner element of the inbox XML export.
type PrisonerInboxOut struct {
	ID                int64             `xml:"Id"`
	Name              string            `xml:"Name"`
	IncarcerationDate string            `xml:"IncarcerationDate"`
	EncryptedMessages EncryptedMessages `xml:"EncryptedMessages"`
}

// EncryptedMessages wraps the messages so the element is present even when
// a prisoner has no mail.
type EncryptedMessages struct {
	Messages []MessageOut `xml:"Message"`
}

// MessageOut carries one reversed mail description.
type MessageOut struct {
	Description string `xml:"Description"`
}

package core

// Import kind keys.
const (
	KindDepartments = "departments"
	KindPrisoners   = "prisoners"
	KindOfficers    = "officers"
)

func init() {
	Register(ImportKind{
		Key:         KindDepartments,
		Label:       "Departments & Cells",
		Format:      FormatJSON,
		Description: "JSON array of departments, each with its cells",
		Order:       1,
		Import:      importDepartments,
	})
	Register(ImportKind{
		Key:         KindPrisoners,
		Label:       "Prisoners & Mails",
		Format:      FormatJSON,
		Description: "JSON array of prisoners, each with its mails",
		Order:       2,
		Import:      importPrisoners,
	})
	Register(ImportKind{
		Key:         KindOfficers,
		Label:       "Officers & Prisoners",
		Format:      FormatXML,
		Description: "Officers XML document linking officers to prisoners",
		Order:       3,
		Import:      importOfficers,
	})
}

package repository

import "github.com/homefax/homefax/pkg/models"

// Typed filters for the admin list views. Each struct carries the
// optional search/filter/sort/paginate fields its view supports; the
// query layer translates them into SQL. Zero values mean "no filter".

type Page struct {
	Skip int
	Take int
}

type Sort struct {
	Column string
	Desc   bool
}

type UserFilter struct {
	// Search matches case-insensitively against email and name.
	Search    string
	Role      models.Role
	ProStatus models.ProStatus
	Suspended *bool
	Sort      Sort
	Page      Page
}

type ContractorFilter struct {
	// Search matches case-insensitively against email, name and
	// business name.
	Search    string
	ProStatus models.ProStatus
	ProType   models.ProType
	Sort      Sort
	Page      Page
}

type HomeFilter struct {
	// Search matches case-insensitively against address, city and zip.
	Search             string
	VerificationStatus string
	Sort               Sort
	Page               Page
}

type TransferFilter struct {
	// Search matches case-insensitively against the recipient email.
	Search string
	Status models.TransferStatus
	Sort   Sort
	Page   Page
}

// ContractorListItem joins the pro's account with its business profile
// for the admin contractors view.
type ContractorListItem struct {
	User    models.User       `json:"user"`
	Profile models.ProProfile `json:"profile"`
}

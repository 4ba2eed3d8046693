package kernel

// UserID identifies a user within an application.
type UserID string

func NewUserID(id string) UserID { return UserID(id) }
func (u UserID) String() string  { return string(u) }
func (u UserID) IsEmpty() bool   { return string(u) == "" }

// AppID identifies an application (tenant).
type AppID string

func NewAppID(id string) AppID { return AppID(id) }
func (a AppID) String() string { return string(a) }
func (a AppID) IsEmpty() bool  { return string(a) == "" }

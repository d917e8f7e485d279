package domain

// UserTokenData is the identity carried by a verified InNoHassle token.
type UserTokenData struct {
	InnohassleID string `json:"innohassle_id"`
	Email        string `json:"email"`
}

type InnopolisInfo struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// AccountsUser is the InNoHassle Accounts view of a user.
type AccountsUser struct {
	ID            string         `json:"id"`
	InnopolisInfo *InnopolisInfo `json:"innopolis_sso,omitempty"`
}

func (u AccountsUser) DisplayName() string {
	if u.InnopolisInfo == nil {
		return ""
	}
	return u.InnopolisInfo.Name
}

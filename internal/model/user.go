package model

import "golang.org/x/crypto/bcrypt"

type User struct {
	Login    string `yaml:"user"`
	Name     string `yaml:"name,omitempty"`
	Password string `yaml:"password"`
	TenantID uint   `yaml:"tenant_id,omitempty"`
	Admin    bool   `yaml:"admin,omitempty"`
}

func (u *User) GetLogin() string {
	if u == nil {
		return ""
	}

	return u.Login
}

func (u *User) SetPassword(password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), 14)
	if err != nil {
		return err
	}

	u.Password = string(hash)

	return nil
}

func (u *User) CheckPassword(password string) bool {
	if u == nil || u.Password == "" {
		return false
	}

	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) == nil
}

// CanSeeTenant reports whether the user may look at a tenant's data.
// A zero tenant id means a platform-wide admin.
func (u *User) CanSeeTenant(tenantID uint) bool {
	if u == nil {
		return false
	}

	if u.Admin || u.TenantID == 0 {
		return true
	}

	return u.TenantID == tenantID
}

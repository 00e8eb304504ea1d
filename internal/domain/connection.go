package domain

import "time"

type OverallStatus string

const (
	SyncNotStarted OverallStatus = "not_started"
	SyncInProgress OverallStatus = "in_progress"
	SyncCompleted  OverallStatus = "completed"
	SyncFailed     OverallStatus = "failed"
)

type Connection struct {
	ID          string        `db:"id"`
	BrandID     string        `db:"brand_id"`
	Platform    string        `db:"platform"`
	ShopDomain  string        `db:"shop_domain"`
	AccessToken string        `db:"access_token"`
	Timezone    string        `db:"timezone"`
	SyncStatus  OverallStatus `db:"sync_status"`
	CreatedAt   time.Time     `db:"created_at"`
	UpdatedAt   time.Time     `db:"updated_at"`
}

func (c *Connection) Credentials() Credentials {
	return Credentials{ShopDomain: c.ShopDomain, AccessToken: c.AccessToken}
}

// Location returns the connection's business timezone, UTC when unset or
// unknown.
func (c *Connection) Location() *time.Location {
	if c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

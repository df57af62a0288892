package crmsync

// Tenant names one of the two isolated Salesforce orgs.
type Tenant string

const (
	TenantLive Tenant = "live"
	TenantDev  Tenant = "dev"
)

// Session bundles everything an invocation needs for one tenant.
type Session struct {
	Tenant   Tenant
	CRM      CRM
	Database string
}

// Sessions holds both tenant sessions for the lifetime of the process.
type Sessions struct {
	Live Session
	Dev  Session

	liveHosts map[string]struct{}
}

// NewSessions creates the tenant router. Events whose url is exactly one of
// liveHosts go to live, everything else goes to dev.
func NewSessions(live, dev Session, liveHosts []string) *Sessions {
	hosts := make(map[string]struct{}, len(liveHosts))
	for _, h := range liveHosts {
		hosts[h] = struct{}{}
	}
	live.Tenant = TenantLive
	dev.Tenant = TenantDev
	return &Sessions{Live: live, Dev: dev, liveHosts: hosts}
}

// Resolve returns the tenant for an event url.
func (s *Sessions) Resolve(url string) Tenant {
	if _, ok := s.liveHosts[url]; ok {
		return TenantLive
	}
	return TenantDev
}

// Select returns the session for an event url.
func (s *Sessions) Select(url string) Session {
	if s.Resolve(url) == TenantLive {
		return s.Live
	}
	return s.Dev
}

package osuauth

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/tourneyhub/tourney-server/internal/cache"
	"github.com/tourneyhub/tourney-server/internal/osuapi"
)

// profileTTL keeps osu! profile data fresh enough for display purposes while
// sparing the API on bursts of lookups.
const profileTTL = 60 * time.Second

// ErrNoAccessToken is returned when a profile lookup finds no cached access
// token for the user. The caller must re-authenticate.
var ErrNoAccessToken = errors.New("no cached osu! access token for user")

// UserProfile is the cached projection of an osu! user shown to clients.
type UserProfile struct {
	UserID    uint32 `json:"userId"`
	Username  string `json:"username"`
	Country   string `json:"country"`
	AvatarURL string `json:"avatarUrl"`
}

func (UserProfile) TypeKey() string { return "osuuser" }

func (p UserProfile) Key() string { return strconv.FormatUint(uint64(p.UserID), 10) }

// Profiles loads osu! user profiles cache-aside: cached entries are served
// directly, misses go to the osu! API using the user's cached access token.
type Profiles struct {
	cache *cache.Cache
	osu   *osuapi.Client
}

// NewProfiles creates a profile loader over the given cache and osu! client.
func NewProfiles(c *cache.Cache, osu *osuapi.Client) *Profiles {
	return &Profiles{cache: c, osu: osu}
}

// Get returns the profile for userID, fetching and caching it on a miss.
func (p *Profiles) Get(ctx context.Context, userID uint32) (UserProfile, error) {
	key := strconv.FormatUint(uint64(userID), 10)
	return cache.GetOrFetch(ctx, p.cache, key, profileTTL, func(ctx context.Context) (UserProfile, error) {
		token, err := cache.Get[AccessToken](ctx, p.cache, key)
		if err != nil {
			return UserProfile{}, err
		}
		if token == nil {
			return UserProfile{}, ErrNoAccessToken
		}

		user, err := p.osu.CurrentUser(ctx, token.Token)
		if err != nil {
			return UserProfile{}, err
		}
		return UserProfile{
			UserID:    user.ID,
			Username:  user.Username,
			Country:   user.CountryCode,
			AvatarURL: user.AvatarURL,
		}, nil
	})
}

// Package contact reads users and departments from the contact directory.
package contact

import (
	"context"
	"net/url"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	gohttp "github.com/km-arc/go-feishu/framework/http"
	"github.com/km-arc/go-feishu/framework/http/validation"
	"github.com/km-arc/go-feishu/framework/log"
)

// DefaultCacheTTL is how long a fetched user stays cached.
const DefaultCacheTTL = 5 * time.Minute

// ID types accepted by the contact endpoints.
const (
	OpenID  = "open_id"
	UserID  = "user_id"
	UnionID = "union_id"
)

// Authorizer runs an API call with a valid tenant access token.
type Authorizer interface {
	Call(ctx context.Context, fn func(token string) error) error
}

// User is a directory member.
type User struct {
	UserID        string   `json:"user_id"`
	OpenID        string   `json:"open_id"`
	UnionID       string   `json:"union_id"`
	Name          string   `json:"name"`
	EnName        string   `json:"en_name"`
	Email         string   `json:"email"`
	Mobile        string   `json:"mobile"`
	DepartmentIDs []string `json:"department_ids"`
	JobTitle      string   `json:"job_title"`
}

// Department is a directory department.
type Department struct {
	Name               string `json:"name"`
	DepartmentID       string `json:"department_id"`
	OpenDepartmentID   string `json:"open_department_id"`
	ParentDepartmentID string `json:"parent_department_id"`
	LeaderUserID       string `json:"leader_user_id"`
	MemberCount        int    `json:"member_count"`
}

// UserIDResult is one entry of a BatchGetID result. UserID is empty when nobody
// matches the email or mobile.
type UserIDResult struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Mobile string `json:"mobile"`
}

// Contact is the contact directory client.
type Contact struct {
	auth   Authorizer
	client *gohttp.Client
	users  *cache.Cache
	group  singleflight.Group
}

// New creates a Contact. A ttl of zero uses DefaultCacheTTL; a nil client
// uses gohttp.Shared().
func New(auth Authorizer, client *gohttp.Client, ttl time.Duration) *Contact {
	if client == nil {
		client = gohttp.Shared()
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Contact{
		auth:   auth,
		client: client,
		users:  cache.New(ttl, 2*ttl),
	}
}

// User returns the user with the given id. Results are cached per id type
// and concurrent lookups of the same user share one request.
func (c *Contact) User(ctx context.Context, id, idType string) (*User, error) {
	if idType == "" {
		idType = OpenID
	}
	if err := validateID(id, idType); err != nil {
		return nil, err
	}

	key := idType + ":" + id
	if u, ok := c.users.Get(key); ok {
		return u.(*User), nil
	}

	// The shared fetch outlives any single caller; each caller still stops
	// waiting when its own ctx ends.
	fetch := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		if u, ok := c.users.Get(key); ok {
			return u, nil
		}
		var res struct {
			Data struct {
				User User `json:"user"`
			} `json:"data"`
		}
		err := c.auth.Call(fetch, func(token string) error {
			return c.client.Get(fetch, "contact/v3/users/"+url.PathEscape(id),
				url.Values{"user_id_type": {idType}}, token, &res)
		})
		if err != nil {
			return nil, err
		}
		u := &res.Data.User
		c.users.SetDefault(key, u)
		return u, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		if r.Shared {
			log.Trace("contact user lookup shared", "id", id, "id_type", idType)
		}
		return r.Val.(*User), nil
	}
}

// Forget drops a cached user.
func (c *Contact) Forget(id, idType string) {
	if idType == "" {
		idType = OpenID
	}
	c.users.Delete(idType + ":" + id)
}

// BatchGetID resolves emails and mobiles to user ids.
func (c *Contact) BatchGetID(ctx context.Context, emails, mobiles []string, idType string) ([]UserIDResult, error) {
	if idType == "" {
		idType = OpenID
	}
	if len(emails) == 0 && len(mobiles) == 0 {
		return nil, nil
	}
	if err := validation.Make(
		map[string]string{"user_id_type": idType},
		validation.Rules{"user_id_type": "in:" + OpenID + "," + UserID + "," + UnionID},
	).Validate(); err != nil {
		return nil, err
	}

	body := map[string][]string{}
	if len(emails) > 0 {
		body["emails"] = emails
	}
	if len(mobiles) > 0 {
		body["mobiles"] = mobiles
	}

	var res struct {
		Data struct {
			UserList []UserIDResult `json:"user_list"`
		} `json:"data"`
	}
	err := c.auth.Call(ctx, func(token string) error {
		return c.client.Post(ctx, "contact/v3/users/batch_get_id",
			url.Values{"user_id_type": {idType}}, body, token, &res)
	})
	if err != nil {
		return nil, err
	}
	return res.Data.UserList, nil
}

// Department returns the department with the given id. idType is
// "open_department_id" (default) or "department_id".
func (c *Contact) Department(ctx context.Context, id, idType string) (*Department, error) {
	if idType == "" {
		idType = "open_department_id"
	}
	if err := validation.Make(
		map[string]string{"department_id": id, "department_id_type": idType},
		validation.Rules{
			"department_id":      "required",
			"department_id_type": "in:open_department_id,department_id",
		},
	).Validate(); err != nil {
		return nil, err
	}

	var res struct {
		Data struct {
			Department Department `json:"department"`
		} `json:"data"`
	}
	err := c.auth.Call(ctx, func(token string) error {
		return c.client.Get(ctx, "contact/v3/departments/"+url.PathEscape(id),
			url.Values{"department_id_type": {idType}}, token, &res)
	})
	if err != nil {
		return nil, err
	}
	return &res.Data.Department, nil
}

func validateID(id, idType string) error {
	return validation.Make(
		map[string]string{"id": id, "user_id_type": idType},
		validation.Rules{
			"id":           "required",
			"user_id_type": "in:" + OpenID + "," + UserID + "," + UnionID,
		},
	).Validate()
}

package cli

import (
	"encoding/json"
	"errors"

	"github.com/Checker-Finance/appstore/pkg/appstore"
)

var errInvalidResults = errors.New("results must be valid JSON")

type authCommand struct {
	r *Runner
}

func (c *authCommand) Execute(_ []string) error {
	s, err := c.r.sessionFor()
	if err != nil {
		return err
	}
	auth, err := s.Login(c.r.ctx)
	if err != nil {
		return err
	}
	return c.r.print(auth)
}

type getCommand struct {
	Key string `short:"k" long:"key" description:"key to read" required:"true"`
	r   *Runner
}

func (c *getCommand) Execute(_ []string) error {
	s, err := c.r.sessionFor()
	if err != nil {
		return err
	}
	resp, err := s.GetUserData(c.r.ctx, appstore.GetParams{Key: c.Key, Token: c.r.opts.Token})
	if err != nil {
		return err
	}
	return c.r.print(resp)
}

type setCommand struct {
	Key   string `short:"k" long:"key" description:"key to write" required:"true"`
	Value string `short:"v" long:"value" description:"value to store"`
	r     *Runner
}

func (c *setCommand) Execute(_ []string) error {
	s, err := c.r.sessionFor()
	if err != nil {
		return err
	}
	resp, err := s.SetUserData(c.r.ctx, appstore.SetParams{Key: c.Key, Token: c.r.opts.Token, Value: c.Value})
	if err != nil {
		return err
	}
	return c.r.print(resp)
}

type submitCommand struct {
	Results string `short:"r" long:"results" description:"results as a JSON document"`
	r       *Runner
}

func (c *submitCommand) Execute(_ []string) error {
	p := appstore.SubmitParams{Token: c.r.opts.Token}
	if c.Results != "" {
		if !json.Valid([]byte(c.Results)) {
			return errInvalidResults
		}
		p.Results = json.RawMessage(c.Results)
	}

	s, err := c.r.sessionFor()
	if err != nil {
		return err
	}
	resp, err := s.Submit(c.r.ctx, p)
	if err != nil {
		return err
	}
	return c.r.print(resp)
}

type appsCommand struct {
	r *Runner
}

func (c *appsCommand) Execute(_ []string) error {
	res, err := c.r.resolver()
	if err != nil {
		return err
	}
	apps, err := res.DiscoverApps(c.r.ctx)
	if err != nil {
		return err
	}
	if apps == nil {
		apps = []string{}
	}
	return c.r.print(apps)
}

package bdd

import (
	"context"
	"fmt"

	"github.com/cucumber/godog"

	"github.com/xkilldash9x/sauce-e2e/internal/data"
	"github.com/xkilldash9x/sauce-e2e/internal/flows"
)

// registerSteps binds the Spanish step phrases to the login flows.
func (s *Suite) registerSteps(sc *godog.ScenarioContext) {
	sc.Step(`^que el usuario está en la página de login$`, func() error { return nil })
	sc.Step(`^ingresa las credenciales:$`, s.loginWithTable)
	sc.Step(`^ingresa username "([^"]*)" y password "([^"]*)"$`, s.loginWith)
	sc.Step(`^ingresa las credenciales del alias "([^"]*)"$`, s.loginWithAlias)
	sc.Step(`^ejecuta el caso "([^"]*)"$`, s.loginWithCase)
	sc.Step(`^debería ver el listado de productos$`, s.seeInventory)
	sc.Step(`^debería ver el error "([^"]*)"$`, s.seeError)
	sc.Step(`^debería ver el error del caso "([^"]*)"$`, s.seeCaseError)
}

func (s *Suite) loginWith(ctx context.Context, username, password string) error {
	w, err := worldFrom(ctx)
	if err != nil {
		return err
	}
	return flows.LoginDo(ctx, w.Login, data.Credentials{Username: username, Password: password})
}

// loginWithTable uses the first data row of a username/password table.
func (s *Suite) loginWithTable(ctx context.Context, table *godog.Table) error {
	creds, err := credentialsFromTable(table)
	if err != nil {
		return err
	}
	return s.loginWith(ctx, creds.Username, creds.Password)
}

func (s *Suite) loginWithAlias(ctx context.Context, alias string) error {
	creds, err := s.data.Creds(alias)
	if err != nil {
		return err
	}
	return s.loginWith(ctx, creds.Username, creds.Password)
}

func (s *Suite) loginWithCase(ctx context.Context, id string) error {
	c, err := s.data.Case(id)
	if err != nil {
		return err
	}
	return s.loginWith(ctx, c.Creds.Username, c.Creds.Password)
}

func (s *Suite) seeInventory(ctx context.Context) error {
	w, err := worldFrom(ctx)
	if err != nil {
		return err
	}
	return flows.AssertLoginSuccess(ctx, w.Login)
}

func (s *Suite) seeError(ctx context.Context, msg string) error {
	w, err := worldFrom(ctx)
	if err != nil {
		return err
	}
	return flows.AssertLoginError(ctx, w.Login, msg)
}

func (s *Suite) seeCaseError(ctx context.Context, id string) error {
	c, err := s.data.Case(id)
	if err != nil {
		return err
	}
	return s.seeError(ctx, c.ExpectedError)
}

func credentialsFromTable(table *godog.Table) (data.Credentials, error) {
	if table == nil || len(table.Rows) < 2 {
		return data.Credentials{}, fmt.Errorf("credentials table needs a header and at least one row")
	}
	header, row := table.Rows[0], table.Rows[1]
	values := make(map[string]string, len(header.Cells))
	for i, cell := range header.Cells {
		if i < len(row.Cells) {
			values[cell.Value] = row.Cells[i].Value
		}
	}
	username, ok := values["username"]
	if !ok {
		return data.Credentials{}, fmt.Errorf("credentials table has no username column")
	}
	password, ok := values["password"]
	if !ok {
		return data.Credentials{}, fmt.Errorf("credentials table has no password column")
	}
	return data.Credentials{Username: username, Password: password}, nil
}

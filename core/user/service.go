package user

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/trezcool/darasa/core"
)

var (
	// errors
	ErrNotFound    = errors.New("user not found")
	ErrEmailExists = errors.New("a user with this email already exists")
)

type (
	Repository interface {
		CheckEmailUniqueness(ctx context.Context, email string, excludedUsers ...User) error
		CreateUser(ctx context.Context, usr User) (User, error)
		// FilterUsers applies an AND operation on available QueryFilter fields.
		FilterUsers(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]User, error)
		GetUserByID(ctx context.Context, id string) (User, error)
		GetUserByEmail(ctx context.Context, email string) (User, error)
		UpdateUser(ctx context.Context, usr User, isActive *bool) (User, error)
		SetLastLogin(ctx context.Context, usr User) (User, error)
		DeleteUsersByID(ctx context.Context, ids ...string) error
	}

	Service interface {
		CheckUniqueness(ctx context.Context, email string, exclUsers ...User) error
		Create(ctx context.Context, nu NewUser) (User, error)
		Filter(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]User, error)
		GetByID(ctx context.Context, id string) (User, error)
		GetByEmail(ctx context.Context, email string) (User, error)
		Update(ctx context.Context, id string, uu UpdateUser) (User, error)
		SetLastLogin(ctx context.Context, usr User) (User, error)
		Delete(ctx context.Context, ids ...string) error
		RequestPasswordReset(ctx context.Context, email string) error
		ConfirmPasswordReset(ctx context.Context, rp ResetUserPassword) error
	}

	service struct {
		repo    Repository
		mailSvc core.EmailService
		conf    *core.Config
		log     core.Logger
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, mailSvc core.EmailService, conf *core.Config, log core.Logger) Service {
	return &service{
		repo:    repo,
		mailSvc: mailSvc,
		conf:    conf,
		log:     log,
	}
}

func (svc *service) CheckUniqueness(ctx context.Context, email string, exclUsers ...User) error {
	if err := svc.repo.CheckEmailUniqueness(ctx, email, exclUsers...); err != nil {
		if errors.Is(err, ErrEmailExists) {
			return core.NewValidationError(err, core.FieldError{Field: "email", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *service) Create(ctx context.Context, nu NewUser) (User, error) {
	now := time.Now().UTC()
	usr := User{
		Name:      nu.Name,
		Email:     nu.Email,
		Role:      nu.Role,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, err
	}
	return svc.repo.CreateUser(ctx, usr)
}

func (svc *service) Filter(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]User, error) {
	filter.Search = core.CleanString(filter.Search)
	return svc.repo.FilterUsers(ctx, filter, ordering...)
}

func (svc *service) GetByID(ctx context.Context, id string) (User, error) {
	return svc.repo.GetUserByID(ctx, id)
}

func (svc *service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetUserByEmail(ctx, core.CleanString(email, true /* lower */))
}

func (svc *service) Update(ctx context.Context, id string, uu UpdateUser) (User, error) {
	usr := User{
		ID:        id,
		Name:      uu.Name,
		Email:     uu.Email,
		Role:      uu.Role,
		UpdatedAt: time.Now().UTC(),
	}
	if uu.Password != "" {
		if err := usr.SetPassword(uu.Password); err != nil {
			return User{}, err
		}
	}
	return svc.repo.UpdateUser(ctx, usr, uu.IsActive)
}

func (svc *service) SetLastLogin(ctx context.Context, usr User) (User, error) {
	return svc.repo.SetLastLogin(ctx, usr)
}

func (svc *service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteUsersByID(ctx, ids...)
}

func (svc *service) RequestPasswordReset(ctx context.Context, email string) error {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	go svc.sendPasswordResetMail(usr)
	return nil
}

func (svc *service) ConfirmPasswordReset(ctx context.Context, rp ResetUserPassword) error {
	id, err := decodeUID(rp.UID)
	if err != nil {
		return core.NewValidationError(errInvalidToken, core.FieldError{Field: "uid", Error: errInvalidToken.Error()})
	}
	usr, err := svc.repo.GetUserByID(ctx, id)
	if err != nil {
		return core.NewValidationError(errInvalidToken, core.FieldError{Field: "uid", Error: errInvalidToken.Error()})
	}
	if err = verifyToken(svc.conf, usr, rp.Token); err != nil {
		return core.NewValidationError(err, core.FieldError{Field: "token", Error: err.Error()})
	}
	if err = usr.SetPassword(rp.Password); err != nil {
		return err
	}
	usr.UpdatedAt = time.Now().UTC()
	_, err = svc.repo.UpdateUser(ctx, usr, nil)
	return err
}

func (svc *service) sendPasswordResetMail(usr User) {
	token, err := MakeToken(svc.conf, usr)
	if err != nil {
		svc.log.Error(fmt.Sprintf("making password reset token: %v", err), err)
		return
	}
	msg := &core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject:      "Password Reset",
		TemplateName: "password-reset",
		TemplateData: struct {
			User  User
			UID   string
			Token string
		}{usr, EncodeUID(usr), token},
	}
	svc.mailSvc.SendMessages(msg)
}

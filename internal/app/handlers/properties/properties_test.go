package properties

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staylane/internal/app/apperr"
	"staylane/internal/app/commands"
	"staylane/internal/app/dto"
	"staylane/internal/app/middleware"
	appoutbox "staylane/internal/app/outbox"
	"staylane/internal/app/queries"
	"staylane/internal/domain/user"
	"staylane/internal/infra/storage/memory"
)

type fixture struct {
	box     *memory.Outbox
	cmds    commands.Bus
	queries queries.Bus
}

func newFixture() *fixture {
	factory := memory.Factory{Store: memory.NewStore()}
	box := memory.NewOutbox()

	bus := commands.NewInMemoryBus()
	commands.RegisterHandler(bus, CreatePropertyCommand{}.Key(), &CreatePropertyHandler{Currency: "usd", Outbox: box, Encoder: appoutbox.JSONEventEncoder{}})
	commands.RegisterHandler(bus, RepricePropertyCommand{}.Key(), &RepricePropertyHandler{Currency: "usd", Outbox: box, Encoder: appoutbox.JSONEventEncoder{}})
	qbus := queries.NewInMemoryBus()
	queries.RegisterHandler(qbus, GetPropertyQuery{}.Key(), &GetPropertyHandler{UoWFactory: factory})
	queries.RegisterHandler(qbus, ListPropertiesQuery{}.Key(), &ListPropertiesHandler{UoWFactory: factory})

	return &fixture{
		box: box,
		cmds: middleware.ChainCommands(bus,
			middleware.Validation(middleware.StructValidator{}),
			middleware.Authorization(middleware.RoleAuthorizer{}),
			middleware.Transaction(factory, nil),
		),
		queries: qbus,
	}
}

func as(id string, roles ...user.Role) context.Context {
	return middleware.WithActor(context.Background(), middleware.Actor{ID: user.ID(id), Roles: roles})
}

func payload(name string, price int64) PropertyPayload {
	return PropertyPayload{Name: name, Country: "PT", Guests: 2, Bedrooms: 1, Beds: 1, Baths: 1, NightlyPriceMinor: price}
}

func TestCreatePropertyAsHost(t *testing.T) {
	f := newFixture()

	created, err := commands.Dispatch[CreatePropertyCommand, dto.Property](as("host-1", user.RoleHost), f.cmds,
		CreatePropertyCommand{HostID: "host-1", Payload: payload("Loft", 9900)})
	require.NoError(t, err)
	assert.Equal(t, "host-1", created.OwnerID)
	assert.Equal(t, "USD", created.NightlyPrice.Currency)
	assert.Equal(t, int64(9900), created.NightlyPrice.Amount)
	assert.NotNil(t, created.Amenities)

	got, err := queries.Ask[GetPropertyQuery, dto.Property](context.Background(), f.queries, GetPropertyQuery{PropertyID: created.ID})
	require.NoError(t, err)
	assert.Equal(t, "Loft", got.Name)
	assert.Len(t, f.box.Pending(), 1)
}

func TestCreatePropertyChecksRoleAndInput(t *testing.T) {
	f := newFixture()

	_, err := commands.Dispatch[CreatePropertyCommand, dto.Property](context.Background(), f.cmds,
		CreatePropertyCommand{HostID: "x", Payload: payload("Loft", 9900)})
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))

	_, err = commands.Dispatch[CreatePropertyCommand, dto.Property](as("guest-1", user.RoleGuest), f.cmds,
		CreatePropertyCommand{HostID: "guest-1", Payload: payload("Loft", 9900)})
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	_, err = commands.Dispatch[CreatePropertyCommand, dto.Property](as("host-1", user.RoleHost), f.cmds,
		CreatePropertyCommand{HostID: "host-1", Payload: payload("", 9900)})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = commands.Dispatch[CreatePropertyCommand, dto.Property](as("host-1", user.RoleHost), f.cmds,
		CreatePropertyCommand{HostID: "host-1", Payload: payload("Loft", 0)})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestRepriceProperty(t *testing.T) {
	f := newFixture()
	created, err := commands.Dispatch[CreatePropertyCommand, dto.Property](as("host-1", user.RoleHost), f.cmds,
		CreatePropertyCommand{HostID: "host-1", Payload: payload("Loft", 9900)})
	require.NoError(t, err)

	_, err = commands.Dispatch[RepricePropertyCommand, dto.Property](as("host-2", user.RoleHost), f.cmds,
		RepricePropertyCommand{HostID: "host-2", PropertyID: created.ID, NightlyPriceMinor: 5000})
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	_, err = commands.Dispatch[RepricePropertyCommand, dto.Property](as("host-1", user.RoleHost), f.cmds,
		RepricePropertyCommand{HostID: "host-1", PropertyID: "missing", NightlyPriceMinor: 5000})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	repriced, err := commands.Dispatch[RepricePropertyCommand, dto.Property](as("host-1", user.RoleHost), f.cmds,
		RepricePropertyCommand{HostID: "host-1", PropertyID: created.ID, NightlyPriceMinor: 12000})
	require.NoError(t, err)
	assert.Equal(t, int64(12000), repriced.NightlyPrice.Amount)
}

func TestListPropertiesFiltersByOwner(t *testing.T) {
	f := newFixture()
	for _, host := range []string{"host-1", "host-1", "host-2"} {
		_, err := commands.Dispatch[CreatePropertyCommand, dto.Property](as(host, user.RoleHost), f.cmds,
			CreatePropertyCommand{HostID: host, Payload: payload("Place of "+host, 7000)})
		require.NoError(t, err)
	}

	all, err := queries.Ask[ListPropertiesQuery, dto.PropertyCollection](context.Background(), f.queries, ListPropertiesQuery{})
	require.NoError(t, err)
	assert.Len(t, all.Items, 3)

	mine, err := queries.Ask[ListPropertiesQuery, dto.PropertyCollection](context.Background(), f.queries, ListPropertiesQuery{OwnerID: "host-1"})
	require.NoError(t, err)
	assert.Len(t, mine.Items, 2)

	page, err := queries.Ask[ListPropertiesQuery, dto.PropertyCollection](context.Background(), f.queries, ListPropertiesQuery{Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
}

func TestGetPropertyNotFound(t *testing.T) {
	f := newFixture()

	_, err := queries.Ask[GetPropertyQuery, dto.Property](context.Background(), f.queries, GetPropertyQuery{PropertyID: "missing"})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"proshift/constants"
	"proshift/httpServices/identity"
	"proshift/httpServices/payment"
	"proshift/models/parcel"
	"proshift/models/rider"
	"proshift/models/tracking"
	"proshift/testutil"
)

// tokenVerifier treats the bearer token as the caller's email
type tokenVerifier struct{}

func (tokenVerifier) Verify(_ context.Context, token string) (*identity.Claims, error) {
	if token == "bad" {
		return nil, errors.New("invalid signature")
	}
	return &identity.Claims{Email: token}, nil
}

type fakeProcessor struct {
	calls  int
	amount float64
	err    error
}

func (f *fakeProcessor) CreateIntent(_ context.Context, amount float64, _, parcelID string) (*payment.Intent, error) {
	f.calls++
	f.amount = amount
	if f.err != nil {
		return nil, f.err
	}
	return &payment.Intent{ID: "pi_" + parcelID, ClientSecret: "pi_" + parcelID + "_secret"}, nil
}

type apiResponse struct {
	Message string          `json:"message"`
	Status  int             `json:"status"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
}

type testEnv struct {
	app       *fiber.App
	store     *testutil.Store
	processor *fakeProcessor
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := testutil.NewStore()
	store.AddUser("admin@example.com", constants.RoleAdmin)
	store.AddUser("rider@example.com", constants.RoleRider)
	store.AddUser("other.rider@example.com", constants.RoleRider)
	store.AddUser("alice@example.com", constants.RoleUser)
	store.AddUser("bob@example.com", constants.RoleUser)

	processor := &fakeProcessor{}
	app := fiber.New()
	SetupRoutes(app, Dependencies{
		Store:     store,
		Cache:     testutil.NewCache(),
		Verifier:  tokenVerifier{},
		Processor: processor,
	})
	return &testEnv{app: app, store: store, processor: processor}
}

func (e *testEnv) do(t *testing.T, method, path, caller string, body interface{}) (int, apiResponse) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if caller != "" {
		req.Header.Set("Authorization", "Bearer "+caller)
	}

	resp, err := e.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var out apiResponse
	raw, _ := io.ReadAll(resp.Body)
	_ = json.Unmarshal(raw, &out)
	return resp.StatusCode, out
}

func (e *testEnv) seedAssigned(t *testing.T, deliveryStatus, cashout string) *parcel.Parcel {
	t.Helper()
	e.store.AddRider(rider.Rider{
		Email:      "rider@example.com",
		Name:       "Rafi",
		District:   "Dhaka",
		Status:     constants.RiderActive,
		WorkStatus: constants.WorkAssigned,
	})
	p := e.store.AddParcel(parcel.Parcel{
		TrackingID:         "PRS-1",
		UserEmail:          "alice@example.com",
		Title:              "Books",
		TotalCost:          150,
		SenderCenter:       "Dhaka",
		ReceiverCenter:     "Dhaka",
		DeliveryStatus:     deliveryStatus,
		PaymentStatus:      constants.PaymentPaid,
		CashoutStatus:      cashout,
		AssignedRiderEmail: "rider@example.com",
		CreationDate:       time.Now(),
	})
	e.store.AddTracking(tracking.Tracking{TrackingID: "PRS-1", ParcelID: p.ID, UserEmail: "alice@example.com"})
	return p
}

func createParcelBody() map[string]interface{} {
	return map[string]interface{}{
		"title":            "Documents",
		"type":             "document",
		"totalCost":        60,
		"sender_name":      "Alice",
		"sender_contact":   "01711111111",
		"sender_region":    "Dhaka",
		"sender_center":    "Mirpur",
		"sender_address":   "House 1, Road 2",
		"receiver_name":    "Karim",
		"receiver_contact": "01722222222",
		"receiver_region":  "Chattogram",
		"receiver_center":  "Agrabad",
		"receiver_address": "House 3, Road 4",
	}
}

func TestIndex(t *testing.T) {
	env := newTestEnv(t)
	resp, err := env.app.Test(httptest.NewRequest("GET", "/", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "ProShift Parcel Delivery API is running" {
		t.Errorf("body = %q", body)
	}
}

func TestUserUpsertInsertsOnce(t *testing.T) {
	env := newTestEnv(t)
	body := map[string]string{"email": "Carol@Example.com", "name": "Carol"}

	status, resp := env.do(t, "POST", "/users", "", body)
	if status != fiber.StatusCreated {
		t.Fatalf("first sign-in status = %d (%s)", status, resp.Message)
	}

	status, resp = env.do(t, "POST", "/users", "", body)
	if status != fiber.StatusOK || resp.Message != "User already exists" {
		t.Fatalf("second sign-in = %d %q", status, resp.Message)
	}
	var data struct {
		Inserted bool `json:"inserted"`
	}
	_ = json.Unmarshal(resp.Data, &data)
	if data.Inserted {
		t.Error("second sign-in reported inserted")
	}

	count := 0
	for _, u := range env.store.Users {
		if u.Email == "carol@example.com" {
			count++
			if u.Role != constants.RoleUser {
				t.Errorf("role = %q, want user", u.Role)
			}
		}
	}
	if count != 1 {
		t.Errorf("users with email = %d, want 1", count)
	}
}

func TestUserRoleEndpoints(t *testing.T) {
	env := newTestEnv(t)

	status, resp := env.do(t, "GET", "/users/alice@example.com/role", "bob@example.com", nil)
	if status != fiber.StatusOK || !bytes.Contains(resp.Data, []byte(`"user"`)) {
		t.Errorf("get role = %d %s", status, resp.Data)
	}
	if status, _ := env.do(t, "GET", "/users/ghost@example.com/role", "bob@example.com", nil); status != fiber.StatusNotFound {
		t.Errorf("unknown role status = %d, want 404", status)
	}
	if status, _ := env.do(t, "GET", "/users/search?email=ali", "bob@example.com", nil); status != fiber.StatusForbidden {
		t.Errorf("search as user = %d, want 403", status)
	}
	if status, _ := env.do(t, "GET", "/users/search?email=ali", "admin@example.com", nil); status != fiber.StatusOK {
		t.Errorf("search as admin = %d, want 200", status)
	}

	bob, _ := env.store.FindUserByEmail(context.Background(), "bob@example.com")
	status, _ = env.do(t, "PATCH", "/users/"+bob.ID+"/role", "admin@example.com", map[string]string{"role": "admin"})
	if status != fiber.StatusOK {
		t.Fatalf("promote = %d", status)
	}
	if status, _ := env.do(t, "GET", "/parcels/delivery/status-count", "bob@example.com", nil); status != fiber.StatusOK {
		t.Errorf("promoted user status-count = %d, want 200", status)
	}
	if status, _ := env.do(t, "PATCH", "/users/"+bob.ID+"/role", "admin@example.com", map[string]string{"role": "rider"}); status != fiber.StatusBadRequest {
		t.Errorf("rider role via PATCH = %d, want 400", status)
	}
}

func TestIdentityRequired(t *testing.T) {
	env := newTestEnv(t)
	if status, _ := env.do(t, "GET", "/parcels?email=alice@example.com", "", nil); status != fiber.StatusUnauthorized {
		t.Errorf("no token = %d, want 401", status)
	}
	if status, _ := env.do(t, "GET", "/parcels?email=alice@example.com", "bad", nil); status != fiber.StatusForbidden {
		t.Errorf("bad token = %d, want 403", status)
	}
}

func TestParcelListOwnership(t *testing.T) {
	env := newTestEnv(t)
	env.store.AddParcel(parcel.Parcel{UserEmail: "alice@example.com", CreationDate: time.Now()})
	env.store.AddParcel(parcel.Parcel{UserEmail: "bob@example.com", CreationDate: time.Now()})

	tests := []struct {
		name   string
		caller string
		query  string
		want   int
		count  int
	}{
		{"own parcels", "alice@example.com", "?email=alice@example.com", fiber.StatusOK, 1},
		{"someone else's", "alice@example.com", "?email=bob@example.com", fiber.StatusForbidden, 0},
		{"all as user", "alice@example.com", "", fiber.StatusForbidden, 0},
		{"all as admin", "admin@example.com", "", fiber.StatusOK, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, resp := env.do(t, "GET", "/parcels"+tt.query, tt.caller, nil)
			if status != tt.want {
				t.Fatalf("status = %d, want %d", status, tt.want)
			}
			if status == fiber.StatusOK {
				var list []parcel.Parcel
				_ = json.Unmarshal(resp.Data, &list)
				if len(list) != tt.count {
					t.Errorf("parcels = %d, want %d", len(list), tt.count)
				}
			}
		})
	}
}

func TestCreateParcelOpensTracking(t *testing.T) {
	env := newTestEnv(t)

	status, resp := env.do(t, "POST", "/parcels", "alice@example.com", createParcelBody())
	if status != fiber.StatusCreated {
		t.Fatalf("create = %d %s", status, resp.Message)
	}
	var created struct {
		InsertedID string `json:"insertedId"`
		TrackingID string `json:"trackingId"`
	}
	_ = json.Unmarshal(resp.Data, &created)
	if created.InsertedID == "" || created.TrackingID == "" {
		t.Fatalf("create data = %s", resp.Data)
	}

	p := env.store.Parcels[created.InsertedID]
	if p.UserEmail != "alice@example.com" || p.DeliveryStatus != constants.DeliveryPending ||
		p.PaymentStatus != constants.PaymentUnpaid || p.CashoutStatus != constants.CashoutNone {
		t.Errorf("stored parcel = %+v", p)
	}

	path := "/trackings/" + created.TrackingID
	if status, _ := env.do(t, "GET", path, "alice@example.com", nil); status != fiber.StatusOK {
		t.Errorf("owner tracking = %d, want 200", status)
	}
	if status, _ := env.do(t, "GET", path, "bob@example.com", nil); status != fiber.StatusForbidden {
		t.Errorf("stranger tracking = %d, want 403", status)
	}
	if status, _ := env.do(t, "GET", path, "admin@example.com", nil); status != fiber.StatusOK {
		t.Errorf("admin tracking = %d, want 200", status)
	}
	if status, _ := env.do(t, "GET", "/trackings/PRS-missing", "admin@example.com", nil); status != fiber.StatusNotFound {
		t.Errorf("unknown tracking = %d, want 404", status)
	}
}

func TestCreateParcelValidation(t *testing.T) {
	env := newTestEnv(t)
	body := createParcelBody()
	body["type"] = "box"

	status, resp := env.do(t, "POST", "/parcels", "alice@example.com", body)
	if status != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want 400", status)
	}
	if resp.Message == "" {
		t.Error("expected a validation message")
	}
	if len(env.store.Parcels) != 0 {
		t.Error("invalid parcel was stored")
	}
}

func TestGetAndDeleteParcel(t *testing.T) {
	env := newTestEnv(t)
	p := env.seedAssigned(t, constants.DeliveryRiderAssigned, constants.CashoutNone)
	path := "/parcels/" + p.ID

	for caller, want := range map[string]int{
		"alice@example.com": fiber.StatusOK,
		"rider@example.com": fiber.StatusOK,
		"admin@example.com": fiber.StatusOK,
		"bob@example.com":   fiber.StatusForbidden,
	} {
		if status, _ := env.do(t, "GET", path, caller, nil); status != want {
			t.Errorf("GET as %s = %d, want %d", caller, status, want)
		}
	}

	if status, _ := env.do(t, "DELETE", path, "admin@example.com", nil); status != fiber.StatusForbidden {
		t.Errorf("delete by admin = %d, want 403", status)
	}
	if status, _ := env.do(t, "DELETE", path, "alice@example.com", nil); status != fiber.StatusOK {
		t.Errorf("delete by owner = %d, want 200", status)
	}
	if status, _ := env.do(t, "DELETE", path, "alice@example.com", nil); status != fiber.StatusNotFound {
		t.Errorf("second delete = %d, want 404", status)
	}
}

func TestAssignInTransitRiderWritesNothing(t *testing.T) {
	env := newTestEnv(t)
	r := env.store.AddRider(rider.Rider{
		Email:      "rider@example.com",
		Status:     constants.RiderActive,
		WorkStatus: constants.WorkInTransit,
	})
	p := env.store.AddParcel(parcel.Parcel{
		UserEmail:      "alice@example.com",
		DeliveryStatus: constants.DeliveryPending,
		PaymentStatus:  constants.PaymentPaid,
		CashoutStatus:  constants.CashoutNone,
	})

	before := env.store.Writes
	status, _ := env.do(t, "PATCH", "/parcels/"+p.ID+"/assign", "admin@example.com", map[string]string{
		"riderId":    r.ID,
		"riderEmail": r.Email,
		"riderName":  "Rafi",
	})
	if status != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want 400", status)
	}
	if env.store.Writes != before {
		t.Errorf("writes = %d, want %d", env.store.Writes, before)
	}
	if got := env.store.Parcels[p.ID].DeliveryStatus; got != constants.DeliveryPending {
		t.Errorf("delivery status = %q, want pending", got)
	}
}

func TestAssignRider(t *testing.T) {
	env := newTestEnv(t)
	r := env.store.AddRider(rider.Rider{
		Email:      "rider@example.com",
		Status:     constants.RiderActive,
		WorkStatus: constants.WorkAvailable,
	})
	env.store.AddTracking(tracking.Tracking{TrackingID: "PRS-9", UserEmail: "alice@example.com"})
	p := env.store.AddParcel(parcel.Parcel{
		TrackingID:     "PRS-9",
		UserEmail:      "alice@example.com",
		DeliveryStatus: constants.DeliveryPending,
		CashoutStatus:  constants.CashoutNone,
	})
	body := map[string]string{"riderId": r.ID, "riderEmail": r.Email, "riderName": "Rafi"}

	if status, _ := env.do(t, "PATCH", "/parcels/"+p.ID+"/assign", "rider@example.com", body); status != fiber.StatusForbidden {
		t.Errorf("assign as rider = %d, want 403", status)
	}
	if status, resp := env.do(t, "PATCH", "/parcels/"+p.ID+"/assign", "admin@example.com", body); status != fiber.StatusOK {
		t.Fatalf("assign = %d %s", status, resp.Message)
	}
	if got := env.store.Parcels[p.ID]; got.DeliveryStatus != constants.DeliveryRiderAssigned || got.AssignedRiderEmail != r.Email {
		t.Errorf("parcel after assign = %+v", got)
	}
	if got := env.store.Riders[r.ID].WorkStatus; got != constants.WorkAssigned {
		t.Errorf("rider work status = %q, want assigned", got)
	}
	if latest, ok := env.store.Trackings["PRS-9"].History.Latest(); !ok || latest.Status != constants.TrackRiderAssigned {
		t.Errorf("latest tracking = %+v", latest)
	}
	if status, _ := env.do(t, "PATCH", "/parcels/missing/assign", "admin@example.com", body); status != fiber.StatusNotFound {
		t.Errorf("unknown parcel = %d, want 404", status)
	}
}

func TestAssignRiderEmailMustMatchRider(t *testing.T) {
	env := newTestEnv(t)
	r := env.store.AddRider(rider.Rider{Email: "rider@example.com", Status: constants.RiderActive, WorkStatus: constants.WorkAvailable})
	env.store.AddRider(rider.Rider{Email: "other.rider@example.com", Status: constants.RiderActive, WorkStatus: constants.WorkAvailable})
	p := env.store.AddParcel(parcel.Parcel{UserEmail: "alice@example.com", DeliveryStatus: constants.DeliveryPending})

	before := env.store.Writes
	status, _ := env.do(t, "PATCH", "/parcels/"+p.ID+"/assign", "admin@example.com", map[string]string{
		"riderId":    r.ID,
		"riderEmail": "other.rider@example.com",
	})
	if status != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want 400", status)
	}
	if env.store.Writes != before {
		t.Errorf("writes = %d, want %d", env.store.Writes, before)
	}
	if status, _ := env.do(t, "PATCH", "/parcels/"+p.ID+"/status", "other.rider@example.com", map[string]string{"status": "in-transit"}); status == fiber.StatusOK {
		t.Error("rider named only in the request body gained the parcel")
	}
}

func TestCreateParcelTrackingIDClash(t *testing.T) {
	env := newTestEnv(t)
	status, resp := env.do(t, "POST", "/parcels", "alice@example.com", createParcelBody())
	if status != fiber.StatusCreated {
		t.Fatalf("create = %d %s", status, resp.Message)
	}
	var created struct {
		TrackingID string `json:"trackingId"`
	}
	_ = json.Unmarshal(resp.Data, &created)

	body := createParcelBody()
	body["trackingId"] = created.TrackingID
	if status, _ := env.do(t, "POST", "/parcels", "bob@example.com", body); status != fiber.StatusConflict {
		t.Fatalf("create with taken tracking id = %d, want 409", status)
	}
	if len(env.store.Parcels) != 1 {
		t.Errorf("parcels = %d, want 1", len(env.store.Parcels))
	}
	if status, _ := env.do(t, "GET", "/trackings/"+created.TrackingID, "bob@example.com", nil); status != fiber.StatusForbidden {
		t.Errorf("bob reading alice's tracking = %d, want 403", status)
	}
}

func TestDeliveryAndCashoutFlow(t *testing.T) {
	env := newTestEnv(t)
	p := env.seedAssigned(t, constants.DeliveryRiderAssigned, constants.CashoutNone)
	base := "/parcels/" + p.ID

	if status, _ := env.do(t, "PATCH", base+"/status", "other.rider@example.com", map[string]string{"status": "in-transit"}); status != fiber.StatusForbidden {
		t.Errorf("other rider = %d, want 403", status)
	}
	if status, _ := env.do(t, "PATCH", base+"/status", "rider@example.com", map[string]string{"status": "lost"}); status != fiber.StatusBadRequest {
		t.Errorf("bad status = %d, want 400", status)
	}
	if status, _ := env.do(t, "PATCH", base+"/cashout", "rider@example.com", nil); status != fiber.StatusBadRequest {
		t.Errorf("cashout before delivery = %d, want 400", status)
	}
	if got := env.store.Parcels[p.ID].CashoutStatus; got != constants.CashoutNone {
		t.Fatalf("cashout before delivery moved status to %q", got)
	}
	for _, s := range []string{constants.DeliveryInTransit, constants.DeliveryDelivered} {
		if status, resp := env.do(t, "PATCH", base+"/status", "rider@example.com", map[string]string{"status": s}); status != fiber.StatusOK {
			t.Fatalf("%s = %d %s", s, status, resp.Message)
		}
	}

	steps := []struct {
		method, path, caller string
		want                 int
		cashout              string
	}{
		{"PATCH", base + "/cashout/complete", "admin@example.com", fiber.StatusBadRequest, constants.CashoutNone},
		{"PATCH", base + "/cashout", "rider@example.com", fiber.StatusOK, constants.CashoutPending},
		{"PATCH", base + "/cashout", "rider@example.com", fiber.StatusBadRequest, constants.CashoutPending},
		{"PATCH", base + "/cashout/complete", "rider@example.com", fiber.StatusForbidden, constants.CashoutPending},
		{"PATCH", base + "/cashout/complete", "admin@example.com", fiber.StatusOK, constants.CashoutCashedOut},
		{"PATCH", base + "/cashout", "rider@example.com", fiber.StatusBadRequest, constants.CashoutCashedOut},
	}
	for i, st := range steps {
		status, resp := env.do(t, st.method, st.path, st.caller, nil)
		if status != st.want {
			t.Fatalf("step %d %s = %d, want %d (%s)", i, st.path, status, st.want, resp.Message)
		}
		if got := env.store.Parcels[p.ID].CashoutStatus; got != st.cashout {
			t.Fatalf("step %d cashout = %q, want %q", i, got, st.cashout)
		}
	}

	status, resp := env.do(t, "GET", "/rider/earnings", "rider@example.com", nil)
	if status != fiber.StatusOK {
		t.Fatalf("earnings = %d", status)
	}
	var earnings struct {
		Total     float64 `json:"total_earning"`
		CashedOut float64 `json:"cashed_out"`
		Delivered int     `json:"delivered_count"`
	}
	_ = json.Unmarshal(resp.Data, &earnings)
	if earnings.Total != 120 || earnings.CashedOut != 120 || earnings.Delivered != 1 {
		t.Errorf("earnings = %+v, want 120 total and cashed out", earnings)
	}

	status, resp = env.do(t, "GET", "/rider/weekly-deliveries", "rider@example.com", nil)
	var week []struct {
		Date  string `json:"date"`
		Count int    `json:"count"`
	}
	_ = json.Unmarshal(resp.Data, &week)
	if status != fiber.StatusOK || len(week) != 7 || week[6].Count != 1 {
		t.Errorf("weekly = %d %+v", status, week)
	}

	if status, _ := env.do(t, "GET", "/rider/earnings", "alice@example.com", nil); status != fiber.StatusForbidden {
		t.Errorf("earnings as user = %d, want 403", status)
	}
}

func TestRiderParcelLists(t *testing.T) {
	env := newTestEnv(t)
	env.seedAssigned(t, constants.DeliveryInTransit, constants.CashoutNone)
	env.store.AddParcel(parcel.Parcel{
		UserEmail:          "bob@example.com",
		TotalCost:          100,
		SenderCenter:       "Dhaka",
		ReceiverCenter:     "Sylhet",
		DeliveryStatus:     constants.DeliveryDelivered,
		CashoutStatus:      constants.CashoutNone,
		AssignedRiderEmail: "rider@example.com",
	})

	_, resp := env.do(t, "GET", "/rider/parcels", "rider@example.com", nil)
	var active []parcel.Parcel
	_ = json.Unmarshal(resp.Data, &active)
	if len(active) != 1 || active[0].DeliveryStatus != constants.DeliveryInTransit {
		t.Errorf("active parcels = %+v", active)
	}

	_, resp = env.do(t, "GET", "/rider/completed-parcels", "rider@example.com", nil)
	var completed []struct {
		Earning float64 `json:"earning"`
	}
	_ = json.Unmarshal(resp.Data, &completed)
	if len(completed) != 1 || completed[0].Earning != 40 {
		t.Errorf("completed = %+v, want one parcel earning 40", completed)
	}
}

func TestRiderApplicationAndApproval(t *testing.T) {
	env := newTestEnv(t)
	body := map[string]interface{}{
		"name":              "Bob",
		"age":               24,
		"phone":             "01733333333",
		"nid":               "1234567890",
		"region":            "Dhaka",
		"district":          "Gazipur",
		"bike_brand":        "Yamaha",
		"bike_registration": "DHAKA-METRO-LA-11-2233",
	}

	status, resp := env.do(t, "POST", "/riders", "bob@example.com", body)
	if status != fiber.StatusCreated {
		t.Fatalf("apply = %d %s", status, resp.Message)
	}
	if status, _ := env.do(t, "POST", "/riders", "bob@example.com", body); status != fiber.StatusConflict {
		t.Errorf("second apply = %d, want 409", status)
	}
	body["email"] = "alice@example.com"
	if status, _ := env.do(t, "POST", "/riders", "bob@example.com", body); status != fiber.StatusForbidden {
		t.Errorf("apply for someone else = %d, want 403", status)
	}

	_, resp = env.do(t, "GET", "/riders/pending", "admin@example.com", nil)
	var pending []rider.Rider
	_ = json.Unmarshal(resp.Data, &pending)
	if len(pending) != 1 {
		t.Fatalf("pending = %d, want 1", len(pending))
	}

	status, _ = env.do(t, "PATCH", "/riders/"+pending[0].ID+"/status", "admin@example.com", map[string]string{
		"status": constants.RiderActive,
		"email":  "alice@example.com",
	})
	if status != fiber.StatusBadRequest {
		t.Errorf("approve with another user's email = %d, want 400", status)
	}
	if u, _ := env.store.FindUserByEmail(context.Background(), "alice@example.com"); u.Role != constants.RoleUser {
		t.Errorf("alice role = %q, want user", u.Role)
	}

	status, _ = env.do(t, "PATCH", "/riders/"+pending[0].ID+"/status", "admin@example.com", map[string]string{
		"status": constants.RiderActive,
		"email":  "bob@example.com",
	})
	if status != fiber.StatusOK {
		t.Fatalf("approve = %d", status)
	}
	if u, _ := env.store.FindUserByEmail(context.Background(), "bob@example.com"); u.Role != constants.RoleRider {
		t.Errorf("role after approval = %q, want rider", u.Role)
	}

	_, resp = env.do(t, "GET", "/riders/available?district=Gazipur", "admin@example.com", nil)
	var available []rider.Rider
	_ = json.Unmarshal(resp.Data, &available)
	if len(available) != 1 || available[0].Email != "bob@example.com" {
		t.Errorf("available = %+v", available)
	}

	if status, _ := env.do(t, "PATCH", "/riders/missing/status", "admin@example.com", map[string]string{
		"status": constants.RiderRejected,
		"email":  "bob@example.com",
	}); status != fiber.StatusNotFound {
		t.Errorf("unknown rider = %d, want 404", status)
	}
}

func TestPaymentFlow(t *testing.T) {
	env := newTestEnv(t)
	env.store.AddTracking(tracking.Tracking{TrackingID: "PRS-7", UserEmail: "alice@example.com"})
	p := env.store.AddParcel(parcel.Parcel{
		TrackingID:     "PRS-7",
		UserEmail:      "alice@example.com",
		TotalCost:      250,
		DeliveryStatus: constants.DeliveryPending,
		PaymentStatus:  constants.PaymentUnpaid,
		CashoutStatus:  constants.CashoutNone,
	})
	intent := map[string]interface{}{"amount": 250, "parcelId": p.ID}

	if status, _ := env.do(t, "POST", "/create-payment-intent", "bob@example.com", intent); status != fiber.StatusForbidden {
		t.Errorf("intent for someone else's parcel = %d, want 403", status)
	}
	cheap := map[string]interface{}{"amount": 1, "parcelId": p.ID}
	if status, _ := env.do(t, "POST", "/create-payment-intent", "alice@example.com", cheap); status != fiber.StatusBadRequest {
		t.Errorf("intent below parcel cost = %d, want 400", status)
	}
	if env.processor.calls != 0 {
		t.Errorf("processor called %d times for rejected intents", env.processor.calls)
	}
	status, resp := env.do(t, "POST", "/create-payment-intent", "alice@example.com", intent)
	if status != fiber.StatusOK || !bytes.Contains(resp.Data, []byte("_secret")) {
		t.Fatalf("intent = %d %s", status, resp.Data)
	}
	if env.processor.amount != 250 {
		t.Errorf("processor amount = %v, want 250", env.processor.amount)
	}

	record := map[string]interface{}{
		"parcelId":      p.ID,
		"email":         "alice@example.com",
		"amount":        250,
		"paymentMethod": "card",
		"transactionId": "pi_123",
	}
	if status, _ := env.do(t, "POST", "/payments", "bob@example.com", record); status != fiber.StatusForbidden {
		t.Errorf("record with foreign email = %d, want 403", status)
	}
	record["email"] = "bob@example.com"
	if status, _ := env.do(t, "POST", "/payments", "bob@example.com", record); status != fiber.StatusForbidden {
		t.Errorf("record for someone else's parcel = %d, want 403", status)
	}
	if got := env.store.Parcels[p.ID]; got.PaymentStatus != constants.PaymentUnpaid || len(env.store.Payments) != 0 {
		t.Fatalf("foreign record changed state: %s, %d payments", got.PaymentStatus, len(env.store.Payments))
	}
	record["email"] = "alice@example.com"
	if status, resp := env.do(t, "POST", "/payments", "alice@example.com", record); status != fiber.StatusCreated {
		t.Fatalf("record = %d %s", status, resp.Message)
	}
	if status, _ := env.do(t, "POST", "/payments", "alice@example.com", record); status != fiber.StatusBadRequest {
		t.Errorf("second record for paid parcel = %d, want 400", status)
	}
	if len(env.store.Payments) != 1 {
		t.Errorf("payments stored = %d, want 1", len(env.store.Payments))
	}
	if got := env.store.Parcels[p.ID]; got.PaymentStatus != constants.PaymentPaid || got.PaidAt == nil {
		t.Errorf("parcel after payment = %+v", got)
	}
	if latest, ok := env.store.Trackings["PRS-7"].History.Latest(); !ok || latest.Status != constants.TrackPaymentDone {
		t.Errorf("latest tracking = %+v", latest)
	}

	if status, _ := env.do(t, "POST", "/create-payment-intent", "alice@example.com", intent); status != fiber.StatusBadRequest {
		t.Errorf("intent for paid parcel = %d, want 400", status)
	}

	record["parcelId"] = "missing"
	if status, _ := env.do(t, "POST", "/payments", "alice@example.com", record); status != fiber.StatusNotFound {
		t.Errorf("record for unknown parcel = %d, want 404", status)
	}

	_, resp = env.do(t, "GET", "/payments?email=alice@example.com", "alice@example.com", nil)
	var list []map[string]interface{}
	_ = json.Unmarshal(resp.Data, &list)
	if len(list) != 1 {
		t.Errorf("payments = %d, want 1", len(list))
	}
	if status, _ := env.do(t, "GET", "/payments?email=alice@example.com", "bob@example.com", nil); status != fiber.StatusForbidden {
		t.Errorf("foreign payment history = %d, want 403", status)
	}
}

func TestPaymentProcessorFailure(t *testing.T) {
	env := newTestEnv(t)
	p := env.store.AddParcel(parcel.Parcel{UserEmail: "alice@example.com", TotalCost: 10.5, PaymentStatus: constants.PaymentUnpaid})
	intent := map[string]interface{}{"amount": 10.5, "parcelId": p.ID}

	env.processor.err = errors.New("card_declined")
	if status, _ := env.do(t, "POST", "/create-payment-intent", "alice@example.com", intent); status != fiber.StatusBadGateway {
		t.Errorf("processor error = %d, want 502", status)
	}

	env.processor.err = payment.ErrNotConfigured
	if status, _ := env.do(t, "POST", "/create-payment-intent", "alice@example.com", intent); status != fiber.StatusServiceUnavailable {
		t.Errorf("unconfigured processor = %d, want 503", status)
	}
}

func TestTrackingAppend(t *testing.T) {
	env := newTestEnv(t)
	env.seedAssigned(t, constants.DeliveryInTransit, constants.CashoutNone)
	body := map[string]string{"trackingId": "PRS-1", "status": "at_hub", "details": "Reached Dhaka hub", "location": "Dhaka"}

	if status, _ := env.do(t, "POST", "/trackings", "alice@example.com", body); status != fiber.StatusForbidden {
		t.Errorf("append as user = %d, want 403", status)
	}
	if status, _ := env.do(t, "POST", "/trackings", "other.rider@example.com", body); status != fiber.StatusForbidden {
		t.Errorf("append by unassigned rider = %d, want 403", status)
	}
	if status, resp := env.do(t, "POST", "/trackings", "rider@example.com", body); status != fiber.StatusOK {
		t.Fatalf("append = %d %s", status, resp.Message)
	}

	tr := env.store.Trackings["PRS-1"]
	latest, ok := tr.History.Latest()
	if !ok || latest.Status != "at_hub" || latest.UpdatedBy != "rider@example.com" || tr.CurrentStatus != "at_hub" {
		t.Errorf("tracking = %+v", tr)
	}

	body["trackingId"] = "PRS-missing"
	if status, _ := env.do(t, "POST", "/trackings", "admin@example.com", body); status != fiber.StatusNotFound {
		t.Errorf("append to unknown = %d, want 404", status)
	}
}

func TestWaybillParserNotConfigured(t *testing.T) {
	env := newTestEnv(t)
	if status, _ := env.do(t, "POST", "/parcels/waybill/parse", "alice@example.com", nil); status != fiber.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", status)
	}
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	if status, _ := env.do(t, "GET", "/health", "", nil); status != fiber.StatusOK {
		t.Errorf("healthy = %d", status)
	}
	env.store.Fail["Ping"] = errors.New("connection refused")
	if status, _ := env.do(t, "GET", "/health", "", nil); status != fiber.StatusServiceUnavailable {
		t.Errorf("store down = %d, want 503", status)
	}
}

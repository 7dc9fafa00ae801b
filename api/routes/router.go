package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zapkart/zapkart-backend/api/controllers"
	"github.com/zapkart/zapkart-backend/api/middleware"
	addresssvc "github.com/zapkart/zapkart-backend/internal/address"
	adminsvc "github.com/zapkart/zapkart-backend/internal/admin"
	authsvc "github.com/zapkart/zapkart-backend/internal/auth"
	cartsvc "github.com/zapkart/zapkart-backend/internal/cart"
	checkoutsvc "github.com/zapkart/zapkart-backend/internal/checkout"
	couponsvc "github.com/zapkart/zapkart-backend/internal/coupons"
	deliverysvc "github.com/zapkart/zapkart-backend/internal/delivery"
	notificationsvc "github.com/zapkart/zapkart-backend/internal/notifications"
	ordersvc "github.com/zapkart/zapkart-backend/internal/orders"
	partnersvc "github.com/zapkart/zapkart-backend/internal/partners"
	productsvc "github.com/zapkart/zapkart-backend/internal/products"
	vendorsvc "github.com/zapkart/zapkart-backend/internal/vendors"
	"github.com/zapkart/zapkart-backend/pkg/config"
	"github.com/zapkart/zapkart-backend/pkg/enums"
	"github.com/zapkart/zapkart-backend/pkg/logger"
	"github.com/zapkart/zapkart-backend/pkg/metrics"
	pkgredis "github.com/zapkart/zapkart-backend/pkg/redis"
)

// Deps carries everything the router wires into handlers.
type Deps struct {
	Config  *config.Config
	Logger  *logger.Logger
	Metrics *metrics.Registry

	// Readiness probes, keyed by dependency name.
	Pingers map[string]controllers.Pinger

	Idempotency *pkgredis.IdempotencyStore
	AuthLimiter *pkgredis.RateLimiter
	APILimiter  *pkgredis.RateLimiter

	Auth          *authsvc.Service
	Address       *addresssvc.Service
	Products      *productsvc.Service
	Cart          *cartsvc.Service
	Coupons       *couponsvc.Service
	Checkout      *checkoutsvc.Service
	Orders        *ordersvc.Service
	Delivery      *deliverysvc.Service
	Notifications *notificationsvc.Service
	Vendors       *vendorsvc.Service
	Partners      *partnersvc.Service
	Admin         *adminsvc.Service
}

func NewRouter(d Deps) http.Handler {
	logg := d.Logger
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, d.Metrics),
		middleware.CORS(d.Config.HTTP),
	)

	idem := middleware.Idempotency(d.Idempotency, logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(d.Config))
		r.Get("/ready", controllers.HealthReady(d.Config, logg, d.Pingers))
	})
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(middleware.RateLimit(d.AuthLimiter, logg))
		r.Post("/register", controllers.AuthRegister(d.Auth, logg))
		r.Post("/login", controllers.AuthLogin(d.Auth, logg))
	})

	// Gateway callback; trust comes from the HMAC signature, not a session.
	r.Post("/api/v1/payments/confirm", controllers.PaymentConfirm(d.Checkout, logg))

	// Invitation-based vendor onboarding is unauthenticated: the token is
	// the credential.
	r.Post("/api/v1/vendors/register", controllers.VendorRegister(d.Vendors, logg))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(d.Auth, logg))
		r.Use(middleware.RateLimit(d.APILimiter, logg))

		r.Post("/auth/logout", controllers.AuthLogout(d.Auth, logg))
		r.Get("/auth/me", controllers.AuthMe(d.Auth, logg))

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(d.Notifications, logg))
			r.Get("/unread", controllers.UnreadNotificationCount(d.Notifications, logg))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(d.Notifications, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(d.Notifications, logg))
		})

		r.Get("/products", controllers.ProductBrowse(d.Products, logg))
		r.Get("/products/{productId}", controllers.ProductDetail(d.Products, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(string(enums.UserRoleCustomer), logg))

			r.Route("/addresses", func(r chi.Router) {
				r.Get("/", controllers.AddressList(d.Address, logg))
				r.Post("/", controllers.AddressCreate(d.Address, logg))
				r.Put("/{addressId}", controllers.AddressUpdate(d.Address, logg))
				r.Delete("/{addressId}", controllers.AddressDelete(d.Address, logg))
			})

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.CartFetch(d.Cart, logg))
				r.Put("/items", controllers.CartSetItem(d.Cart, logg))
				r.Delete("/items/{productId}", controllers.CartRemoveItem(d.Cart, logg))
				r.Delete("/", controllers.CartClear(d.Cart, logg))
			})

			r.Post("/geocode/lookup", controllers.GeocodeLookup(d.Address, logg))
			r.Post("/geocode/reverse", controllers.GeocodeReverse(d.Address, logg))

			r.Post("/coupons/validate", controllers.CouponValidate(d.Coupons, d.Cart, logg))
			r.With(idem).Post("/checkout", controllers.Checkout(d.Checkout, logg))

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.OrderList(d.Orders, logg))
				r.Get("/{orderId}", controllers.OrderDetail(d.Orders, logg))
				r.With(idem).Post("/{orderId}/cancel", controllers.OrderCancel(d.Orders, logg))
				r.Get("/{orderId}/track", controllers.OrderTrack(d.Delivery, logg))
			})
		})

		r.Route("/vendor", func(r chi.Router) {
			r.Use(middleware.RequireRole(string(enums.UserRoleVendor), logg))

			r.Get("/profile", controllers.VendorProfile(d.Vendors, logg))
			r.Put("/store/open", controllers.VendorSetOpen(d.Vendors, logg))

			r.Post("/products", controllers.VendorCreateProduct(d.Products, d.Vendors, logg))
			r.Put("/products/{productId}", controllers.VendorUpdateProduct(d.Products, d.Vendors, logg))

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.VendorOrderList(d.Orders, d.Vendors, logg))
				r.Get("/{orderId}", controllers.VendorOrderDetail(d.Orders, d.Vendors, logg))
				r.With(idem).Post("/{orderId}/status", controllers.VendorOrderTransition(d.Orders, d.Vendors, logg))
			})

			r.Route("/deliveries", func(r chi.Router) {
				r.Get("/unassigned", controllers.VendorUnassignedDeliveries(d.Delivery, d.Vendors, logg))
				r.With(idem).Post("/{requestId}/assign", controllers.VendorAssignDelivery(d.Delivery, d.Vendors, logg))
				r.Get("/{requestId}/responses", controllers.VendorDeliveryResponses(d.Delivery, d.Vendors, logg))
			})
		})

		r.Route("/partner", func(r chi.Router) {
			r.Use(middleware.RequireRole(string(enums.UserRolePartner), logg))

			r.Post("/profile", controllers.PartnerProfileCreate(d.Partners, logg))
			r.Get("/profile", controllers.PartnerProfile(d.Partners, logg))
			r.Put("/duty", controllers.PartnerSetDuty(d.Partners, logg))

			r.Route("/deliveries", func(r chi.Router) {
				r.Get("/", controllers.PartnerAssignments(d.Delivery, d.Partners, logg))
				r.Get("/{requestId}", controllers.PartnerOrderDetails(d.Delivery, d.Partners, logg))
				r.With(idem).Post("/{requestId}/respond", controllers.PartnerRespond(d.Delivery, d.Partners, logg))
				r.With(idem).Post("/{requestId}/pickup", controllers.PartnerPickup(d.Delivery, d.Partners, logg))
				r.With(idem).Post("/{requestId}/out-for-delivery", controllers.PartnerOutForDelivery(d.Delivery, d.Partners, logg))
				r.With(idem).Post("/{requestId}/payment-received", controllers.PartnerPaymentReceived(d.Delivery, d.Partners, logg))
				r.With(idem).Post("/{requestId}/delivered", controllers.PartnerDelivered(d.Delivery, d.Partners, logg))
				r.Post("/{requestId}/location", controllers.PartnerLocation(d.Delivery, d.Partners, logg))
				r.Get("/{requestId}/navigate", controllers.PartnerNavigate(d.Delivery, d.Partners, logg))
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireRole(string(enums.UserRoleAdmin), logg))

			r.Get("/overview", controllers.AdminOverview(d.Admin, logg))
			r.Get("/users", controllers.AdminListUsers(d.Admin, logg))
			r.Put("/users/{userId}/active", controllers.AdminSetUserActive(d.Admin, logg))
			r.With(idem).Post("/vendors/invite", controllers.AdminInviteVendor(d.Vendors, logg))
			r.Post("/vendors/{vendorId}/approve", controllers.AdminApproveVendor(d.Admin, logg))
			r.Post("/partners/{partnerId}/approve", controllers.AdminApprovePartner(d.Admin, logg))

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.AdminOrderList(d.Orders, logg))
				r.Get("/{orderId}", controllers.AdminOrderDetail(d.Orders, logg))
				r.With(idem).Post("/{orderId}/cancel", controllers.AdminOrderCancel(d.Orders, logg))
			})
			r.With(idem).Put("/deliveries/{requestId}/status", controllers.AdminDeliveryOverride(d.Delivery, logg))

			r.Route("/coupons", func(r chi.Router) {
				r.Get("/", controllers.AdminCouponList(d.Coupons, logg))
				r.Post("/", controllers.AdminCouponCreate(d.Coupons, logg))
				r.Put("/{code}/active", controllers.AdminCouponSetActive(d.Coupons, logg))
			})
		})
	})

	return r
}

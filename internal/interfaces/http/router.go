package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/tu-usuario/almacen-api/internal/application/auth"
	"github.com/tu-usuario/almacen-api/internal/application/stock"
	"github.com/tu-usuario/almacen-api/internal/application/usecase"
	"github.com/tu-usuario/almacen-api/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC    *auth.UseCase
	ProductUC *usecase.ProductUseCase
	UserUC    *usecase.UserUseCase
	StockUC   *stock.UseCase
	JWTSecret string
	UploadDir string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Login (público)
	authHandler := NewAuthHandler(deps.AuthUC)
	api.Post("/login", authHandler.Login)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Perfil propio (cualquier rol)
	profileHandler := NewProfileHandler(deps.UserUC, deps.UploadDir)
	protected.Get("/me", profileHandler.Me)
	protected.Patch("/me", profileHandler.UpdateMe)
	protected.Patch("/me/password", profileHandler.ChangePassword)

	// Usuarios (solo admin)
	users := protected.Group("/users", RequireRole(entity.RoleAdmin))
	userHandler := NewUserHandler(deps.UserUC)
	users.Get("/", userHandler.List)
	users.Post("/", userHandler.Create)
	users.Delete("/:id", userHandler.Delete)

	// Productos: lectura para todos, escritura solo admin
	products := protected.Group("/products")
	productHandler := NewProductHandler(deps.ProductUC)
	products.Get("/", productHandler.List)
	products.Post("/", RequireRole(entity.RoleAdmin), productHandler.Create)

	// Stock: entradas, salidas y transferencias (cualquier rol autenticado).
	// /products/transfer va antes de /products/:id para que Fiber no lo capture como id.
	stockHandler := NewStockHandler(deps.StockUC)
	products.Post("/transfer", stockHandler.Transfer)
	products.Post("/:id/stock-in", stockHandler.StockIn)
	products.Post("/:id/stock-out", stockHandler.StockOut)

	products.Patch("/:id", RequireRole(entity.RoleAdmin), productHandler.Update)
	products.Delete("/:id", RequireRole(entity.RoleAdmin), productHandler.Delete)
}

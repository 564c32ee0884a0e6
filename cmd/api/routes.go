package main

import (
	"github.com/UnendingLoop/PhotoBlur/internal/transport"
	"github.com/wb-go/wbf/ginext"
)

func registerRoutes(engine *ginext.Engine, handlers *transport.BlurHandler) {
	engine.GET("/ping", handlers.SimplePinger)
	engine.POST("/blur-areas", handlers.BlurAreas)            // детекция + сохранение для залогиненных
	engine.GET("/photos", handlers.ListPhotos)                // список фото пользователя
	engine.DELETE("/photos", handlers.DeletePhoto)            // ?photo-id=
	engine.DELETE("/photos/:id", handlers.DeletePhoto)        // удаление
	engine.GET("/photos/:id/blurred", handlers.RenderBlurred) // фото с размытыми областями
	engine.GET("/photo", handlers.ServeBlob)                  // ?blob-key=
	engine.GET("/user", handlers.UserInfo)                    // кто я и сколько занято
	engine.GET("/server-time", handlers.ServerTime)
}

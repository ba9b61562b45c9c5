package cache

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Cache define la interfaz para una caché de clave-valor genérica.
type Cache interface {
	// Get intenta poblar 'dest' (que debe ser un puntero) con el valor asociado a la 'key'.
	// Devuelve (true, nil) si hay un 'hit' y (false, nil) si es un 'miss'.
	Get(ctx context.Context, key string, dest interface{}) (bool, error)

	// Set serializa y guarda el valor. ttlSecs <= 0 usa el TTL por defecto de la implementación.
	Set(ctx context.Context, key string, val interface{}, ttlSecs int) error

	Delete(ctx context.Context, key string) error
}

const asyncTimeout = 200 * time.Millisecond

// AsyncCacheSet actualiza caché en background sin bloquear.
// Usa un contexto propio: la petición original puede haber terminado ya.
func AsyncCacheSet(cache Cache, key string, value interface{}, ttl int, log *zap.Logger) {
	if cache == nil {
		return
	}

	go func() {
		cacheCtx, cancel := context.WithTimeout(context.Background(), asyncTimeout)
		defer cancel()

		if err := cache.Set(cacheCtx, key, value, ttl); err != nil {
			log.Warn("Cache update failed", zap.String("key", key), zap.Error(err))
		}
	}()
}

// Invalidate borra la clave de forma síncrona, antes de responder al
// cliente. Un fallo sólo se registra: la escritura en el repositorio ya se
// ha confirmado y la entrada caduca por TTL.
func Invalidate(ctx context.Context, cache Cache, key string, log *zap.Logger) {
	if cache == nil {
		return
	}
	if err := cache.Delete(ctx, key); err != nil {
		log.Warn("Cache invalidation failed", zap.String("key", key), zap.Error(err))
	}
}

package manifests

import (
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"

	"github.com/shaiso/Mastokube/internal/config"
	"github.com/shaiso/Mastokube/internal/domain"
)

// Storage возвращает ресурсы стадии storage: статические NFS
// PersistentVolumes и связанные с ними Claims.
//
// Динамический provisioning не используется: каждый Claim привязан
// к своему PV через VolumeName, storage class пустой.
func Storage(env *config.Environment) []domain.Resource {
	volumes := []struct {
		pvName    string
		claimName string
		component string
		path      string
		size      string
		mode      corev1.PersistentVolumeAccessMode
	}{
		{PostgresVolumeName, PostgresClaimName, "postgres", env.NFS.PostgresPath, env.Storage.Postgres, corev1.ReadWriteOnce},
		{RedisVolumeName, RedisClaimName, "redis", env.NFS.RedisPath, env.Storage.Redis, corev1.ReadWriteOnce},
		{SystemVolumeName, SystemClaimName, "system", env.NFS.SystemPath, env.Storage.System, corev1.ReadWriteMany},
	}

	resources := make([]domain.Resource, 0, len(volumes)*2)
	for _, v := range volumes {
		size := resource.MustParse(v.size)

		pv := &corev1.PersistentVolume{
			ObjectMeta: objectMeta(v.pvName, v.component),
			Spec: corev1.PersistentVolumeSpec{
				Capacity: corev1.ResourceList{
					corev1.ResourceStorage: size,
				},
				AccessModes:                   []corev1.PersistentVolumeAccessMode{v.mode},
				PersistentVolumeReclaimPolicy: corev1.PersistentVolumeReclaimRetain,
				StorageClassName:              "",
				PersistentVolumeSource: corev1.PersistentVolumeSource{
					NFS: &corev1.NFSVolumeSource{
						Server: env.NFS.Server,
						Path:   v.path,
					},
				},
			},
		}

		emptyClass := ""
		claim := &corev1.PersistentVolumeClaim{
			ObjectMeta: objectMeta(v.claimName, v.component),
			Spec: corev1.PersistentVolumeClaimSpec{
				AccessModes:      []corev1.PersistentVolumeAccessMode{v.mode},
				VolumeName:       v.pvName,
				StorageClassName: &emptyClass,
				Resources: corev1.VolumeResourceRequirements{
					Requests: corev1.ResourceList{
						corev1.ResourceStorage: size,
					},
				},
			},
		}

		resources = append(resources,
			domain.Resource{Kind: domain.KindPersistentVolume, Name: v.pvName, Object: pv},
			domain.Resource{
				Kind:   domain.KindPersistentVolumeClaim,
				Name:   v.claimName,
				Object: claim,
				Requires: []domain.Reference{
					{Kind: domain.KindPersistentVolume, Name: v.pvName},
				},
			},
		)
	}
	return resources
}
